package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/classroom-api/internal/correlation"
	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// Bounds for the number of recent students returned by analytics.
const (
	MinRecentStudents = 1
	MaxRecentStudents = 50
)

// AnalyticsService aggregates statistics for the dashboard.
type AnalyticsService interface {
	GetSummary(ctx context.Context, req dto.AnalyticsRequest) (dto.AnalyticsResponse, error)
}

type analyticsService struct {
	repo          repository.AnalyticsRepository
	defaultRecent int
	logger        zerolog.Logger
	now           func() time.Time
}

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(repo repository.AnalyticsRepository, defaultRecent int, logger zerolog.Logger) AnalyticsService {
	return &analyticsService{
		repo:          repo,
		defaultRecent: clampRecent(defaultRecent),
		logger:        logger.With().Str("component", "analytics_service").Logger(),
		now:           time.Now,
	}
}

func (s *analyticsService) GetSummary(ctx context.Context, req dto.AnalyticsRequest) (dto.AnalyticsResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/classroom-api/internal/service/analytics")
	ctx, span := tracer.Start(ctx, "analytics.summary")
	defer span.End()

	var subject models.Subject
	if strings.TrimSpace(req.Subject) != "" {
		parsed, ok := models.ParseSubject(req.Subject)
		if !ok {
			return dto.AnalyticsResponse{}, ErrInvalidSubject
		}
		subject = parsed
	}

	limit := s.defaultRecent
	if req.Limit != 0 {
		limit = clampRecent(req.Limit)
	}
	span.SetAttributes(
		attribute.String("analytics.subject", string(subject)),
		attribute.Int("analytics.recent_limit", limit),
	)

	var (
		total    int64
		averages []repository.SubjectAverage
		recent   []models.Student
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		_, child := tracer.Start(groupCtx, "analytics.count")
		defer child.End()
		var err error
		total, err = s.repo.CountStudents(groupCtx, subject)
		return recordSpanError(child, err)
	})
	group.Go(func() error {
		_, child := tracer.Start(groupCtx, "analytics.average_by_subject")
		defer child.End()
		var err error
		averages, err = s.repo.AverageGradeBySubject(groupCtx, subject)
		return recordSpanError(child, err)
	})
	group.Go(func() error {
		_, child := tracer.Start(groupCtx, "analytics.recent")
		defer child.End()
		var err error
		recent, err = s.repo.RecentStudents(groupCtx, subject, limit)
		return recordSpanError(child, err)
	})

	if err := group.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analytics_query_failed")
		correlation.Logger(ctx, s.logger).Error().Err(err).Str("subject", string(subject)).Msg("analytics aggregation failed")
		return dto.AnalyticsResponse{}, err
	}

	bySubject := make(map[string]float64, len(averages))
	for _, average := range averages {
		bySubject[string(average.Subject)] = roundTo2(average.Average)
	}

	span.SetAttributes(attribute.Int64("analytics.total_students", total))

	return dto.AnalyticsResponse{
		TotalStudents:         total,
		AverageGradeBySubject: bySubject,
		RecentStudents:        dto.NewStudentResponses(recent),
		Subject:               string(subject),
		GeneratedAt:           s.now().UTC(),
	}, nil
}

func recordSpanError(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func clampRecent(limit int) int {
	switch {
	case limit < MinRecentStudents:
		return MinRecentStudents
	case limit > MaxRecentStudents:
		return MaxRecentStudents
	default:
		return limit
	}
}

func roundTo2(value float64) float64 {
	return math.Round(value*100) / 100
}
