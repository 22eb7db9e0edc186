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

// AnalyticsHandler serves the dashboard aggregates.
type AnalyticsHandler struct {
	service service.AnalyticsService
	logger  zerolog.Logger
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(service service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "analytics_handler").Logger(),
	}
}

// Register wires analytics routes. The router must already run Authenticate.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("", middleware.RequireRole(auth.RoleAdmin, auth.RoleTeacher), h.summary)
}

func (h *AnalyticsHandler) summary(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Invalid limit")
	}

	result, err := h.service.GetSummary(c.UserContext(), dto.AnalyticsRequest{
		Subject: c.Query("subject"),
		Limit:   limit,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidSubject) {
			return utils.SendError(c, fiber.StatusBadRequest, "Invalid subject")
		}
		if handled, sendErr := sendStorageError(c, err); handled {
			return sendErr
		}
		return sendInternalError(h.logger, c, err, "Failed to fetch analytics")
	}

	return utils.SendSuccess(c, "Analytics retrieved successfully", result)
}
