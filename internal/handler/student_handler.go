package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// StudentHandler exposes the student resource.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register wires student routes. The router must already run Authenticate.
func (h *StudentHandler) Register(router fiber.Router) {
	readers := middleware.RequireRole(auth.RoleAdmin, auth.RoleTeacher, auth.RoleStudent)
	writers := middleware.RequireRole(auth.RoleAdmin, auth.RoleTeacher)

	router.Get("", readers, h.list)
	router.Get("/:id", readers, h.get)
	router.Post("", writers, h.create)
	router.Put("/:id", writers, h.update)
	router.Delete("/:id", writers, h.delete)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	page := queryIntOr(c, "page", 1)
	if page < 1 {
		page = 1
	}

	req := dto.StudentListRequest{
		Subject:   c.Query("subject"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      page,
		PageSize:  queryIntOr(c, "limit", service.DefaultPageSize),
	}

	result, err := h.service.List(c.UserContext(), req, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "Failed to fetch students")
	}

	return utils.SendSuccess(c, "Students retrieved successfully", result)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid student ID")
	}

	student, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err, "Failed to fetch student")
	}

	return utils.SendSuccess(c, "Student retrieved successfully", student)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	student, err := h.service.Create(c.UserContext(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "Failed to create student")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Student created successfully", student)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid student ID")
	}

	var payload dto.StudentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	student, err := h.service.Update(c.UserContext(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "Failed to update student")
	}

	return utils.SendSuccess(c, "Student updated successfully", student)
}

func (h *StudentHandler) delete(c *fiber.Ctx) error {
	id, ok := parseIDParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid student ID")
	}

	if err := h.service.Delete(c.UserContext(), id, actorFromContext(c)); err != nil {
		return h.handleError(c, err, "Failed to delete student")
	}

	return utils.SendSuccess(c, "Student deleted successfully", nil)
}

func (h *StudentHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case utils.IsValidationError(err):
		return utils.SendValidationError(c, utils.ValidationMessages(err))
	case errors.Is(err, service.ErrInvalidSubject):
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid subject")
	case errors.Is(err, service.ErrNoUpdatableFields):
		return utils.SendValidationError(c, []string{"No valid fields to update"})
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "Student not found")
	case errors.Is(err, service.ErrStudentEmailTaken):
		return utils.SendError(c, fiber.StatusConflict, "Email already exists")
	}

	if handled, sendErr := sendStorageError(c, err); handled {
		return sendErr
	}

	return sendInternalError(h.logger, c, err, fallback)
}
