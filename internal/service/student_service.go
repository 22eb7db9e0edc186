package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/classroom-api/internal/auth"
	"github.com/noah-isme/classroom-api/internal/correlation"
	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/utils"
)

var (
	// ErrStudentNotFound indicates no student exists for the identifier.
	ErrStudentNotFound = errors.New("student not found")
	// ErrStudentEmailTaken indicates another student already uses the email.
	ErrStudentEmailTaken = errors.New("student email already exists")
	// ErrNoUpdatableFields indicates an update payload carried none of name, email, subject or grade.
	ErrNoUpdatableFields = errors.New("no valid fields to update")
	// ErrStudentWriteConflict indicates the row disappeared between the existence check and the write.
	ErrStudentWriteConflict = errors.New("student was modified concurrently")
	// ErrInvalidSubject indicates a subject filter outside the known subjects.
	ErrInvalidSubject = errors.New("invalid subject")
)

// Paging bounds for student listings. MaxPage keeps the row offset far from
// integer overflow.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxPage         = 1_000_000
)

// StudentServiceOptions toggles optional list behaviour.
type StudentServiceOptions struct {
	// RestrictStudentRole limits Student-role callers to their own record.
	// Disabled by default pending a product decision.
	RestrictStudentRole bool
}

// StudentService orchestrates student management use cases.
type StudentService interface {
	List(ctx context.Context, req dto.StudentListRequest, actor auth.Identity) (dto.StudentListResponse, error)
	Get(ctx context.Context, id int64) (dto.StudentResponse, error)
	Create(ctx context.Context, payload dto.StudentCreateRequest, actor auth.Identity) (dto.StudentResponse, error)
	Update(ctx context.Context, id int64, payload dto.StudentUpdateRequest, actor auth.Identity) (dto.StudentResponse, error)
	Delete(ctx context.Context, id int64, actor auth.Identity) error
}

type studentService struct {
	repo      repository.StudentRepository
	validator *validator.Validate
	options   StudentServiceOptions
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewStudentService constructs the student service.
func NewStudentService(repo repository.StudentRepository, validator *validator.Validate, options StudentServiceOptions, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:      repo,
		validator: validator,
		options:   options,
		logger:    logger.With().Str("component", "student_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/classroom-api/internal/service/student"),
	}
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest, actor auth.Identity) (dto.StudentListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "students.list")
	defer span.End()

	if req.Page <= 0 {
		req.Page = 1
	} else if req.Page > MaxPage {
		req.Page = MaxPage
	}
	if req.PageSize <= 0 {
		req.PageSize = DefaultPageSize
	} else if req.PageSize > MaxPageSize {
		req.PageSize = MaxPageSize
	}

	filter := repository.StudentFilter{
		Search:    utils.SanitizeText(req.Search),
		SortBy:    repository.ParseSortField(req.SortBy),
		SortOrder: repository.ParseSortDirection(req.SortOrder),
		Page:      req.Page,
		PageSize:  req.PageSize,
	}

	if strings.TrimSpace(req.Subject) != "" {
		subject, ok := models.ParseSubject(req.Subject)
		if !ok {
			return dto.StudentListResponse{}, ErrInvalidSubject
		}
		filter.Subject = subject
	}

	if s.options.RestrictStudentRole && actor.Role == auth.RoleStudent {
		filter.OwnerID = actor.ID
	}

	span.SetAttributes(
		attribute.String("students.subject", string(filter.Subject)),
		attribute.Int("students.page", filter.Page),
		attribute.Int("students.page_size", filter.PageSize),
	)

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return dto.StudentListResponse{}, err
	}
	span.SetAttributes(attribute.Int64("students.total", total))

	return dto.StudentListResponse{
		Students:   dto.NewStudentResponses(students),
		Pagination: dto.NewPaginationMeta(req.Page, req.PageSize, total),
	}, nil
}

func (s *studentService) Get(ctx context.Context, id int64) (dto.StudentResponse, error) {
	student, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	if !found {
		return dto.StudentResponse{}, ErrStudentNotFound
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest, actor auth.Identity) (dto.StudentResponse, error) {
	payload.Name = utils.SanitizeText(payload.Name)
	payload.Email = normalizeEmail(payload.Email)
	payload.Subject = canonicalSubject(payload.Subject)

	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	exists, err := s.repo.EmailExists(ctx, payload.Email, 0)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	if exists {
		return dto.StudentResponse{}, ErrStudentEmailTaken
	}

	student, err := s.repo.Create(ctx, repository.NewStudent{
		Name:    payload.Name,
		Email:   payload.Email,
		Subject: models.Subject(payload.Subject),
		Grade:   *payload.Grade,
	})
	if err != nil {
		return dto.StudentResponse{}, mapWriteError(err)
	}

	correlation.Logger(ctx, s.logger).Info().
		Int64("student_id", student.ID).
		Int64("actor_id", actor.ID).
		Str("actor_role", string(actor.Role)).
		Msg("student created")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Update(ctx context.Context, id int64, payload dto.StudentUpdateRequest, actor auth.Identity) (dto.StudentResponse, error) {
	if payload.Name != nil {
		name := utils.SanitizeText(*payload.Name)
		payload.Name = &name
	}
	if payload.Email != nil {
		email := normalizeEmail(*payload.Email)
		payload.Email = &email
	}
	if payload.Subject != nil {
		subject := canonicalSubject(*payload.Subject)
		payload.Subject = &subject
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	current, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	if !found {
		return dto.StudentResponse{}, ErrStudentNotFound
	}

	if payload.Empty() {
		return dto.StudentResponse{}, ErrNoUpdatableFields
	}

	if payload.Email != nil && !strings.EqualFold(*payload.Email, current.Email) {
		exists, err := s.repo.EmailExists(ctx, *payload.Email, id)
		if err != nil {
			return dto.StudentResponse{}, err
		}
		if exists {
			return dto.StudentResponse{}, ErrStudentEmailTaken
		}
	}

	updates := updatesFromPayload(payload)
	student, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return dto.StudentResponse{}, mapWriteError(err)
	}

	fields := make([]string, 0, len(updates))
	for _, update := range updates {
		fields = append(fields, fieldName(update.Field))
	}
	correlation.Logger(ctx, s.logger).Info().
		Int64("student_id", id).
		Strs("fields", fields).
		Int64("actor_id", actor.ID).
		Str("actor_role", string(actor.Role)).
		Msg("student updated")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id int64, actor auth.Identity) error {
	_, found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrStudentNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapWriteError(err)
	}

	correlation.Logger(ctx, s.logger).Info().
		Int64("student_id", id).
		Int64("actor_id", actor.ID).
		Str("actor_role", string(actor.Role)).
		Msg("student deleted")

	return nil
}

func updatesFromPayload(payload dto.StudentUpdateRequest) []repository.FieldUpdate {
	updates := make([]repository.FieldUpdate, 0, 4)
	if payload.Name != nil {
		updates = append(updates, repository.FieldUpdate{Field: repository.FieldName, Value: *payload.Name})
	}
	if payload.Email != nil {
		updates = append(updates, repository.FieldUpdate{Field: repository.FieldEmail, Value: *payload.Email})
	}
	if payload.Subject != nil {
		updates = append(updates, repository.FieldUpdate{Field: repository.FieldSubject, Value: *payload.Subject})
	}
	if payload.Grade != nil {
		updates = append(updates, repository.FieldUpdate{Field: repository.FieldGrade, Value: *payload.Grade})
	}
	return updates
}

func fieldName(field repository.StudentField) string {
	switch field {
	case repository.FieldName:
		return "name"
	case repository.FieldEmail:
		return "email"
	case repository.FieldSubject:
		return "subject"
	case repository.FieldGrade:
		return "grade"
	default:
		return fmt.Sprintf("field_%d", field)
	}
}

// mapWriteError translates storage outcomes the handler cannot distinguish on its own.
func mapWriteError(err error) error {
	switch {
	case errors.Is(err, database.ErrUniqueViolation):
		return ErrStudentEmailTaken
	case errors.Is(err, repository.ErrNoRowsAffected):
		return fmt.Errorf("%w: %v", ErrStudentWriteConflict, err)
	default:
		return err
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func canonicalSubject(input string) string {
	if subject, ok := models.ParseSubject(input); ok {
		return string(subject)
	}
	return strings.TrimSpace(input)
}
