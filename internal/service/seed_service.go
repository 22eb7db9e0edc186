package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
)

// SeedService populates an empty store with demonstration students.
type SeedService interface {
	SeedStudents(ctx context.Context) (int, error)
}

type seedService struct {
	repo    repository.StudentRepository
	enabled bool
	logger  zerolog.Logger
}

// DefaultStudents returns the rows inserted into an empty store.
func DefaultStudents() []repository.NewStudent {
	return []repository.NewStudent{
		{Name: "John Doe", Email: "john.doe@example.com", Subject: models.SubjectMath, Grade: 85},
		{Name: "Jane Smith", Email: "jane.smith@example.com", Subject: models.SubjectScience, Grade: 92},
		{Name: "Mike Johnson", Email: "mike.johnson@example.com", Subject: models.SubjectEnglish, Grade: 78},
		{Name: "Sarah Wilson", Email: "sarah.wilson@example.com", Subject: models.SubjectMath, Grade: 95},
		{Name: "David Brown", Email: "david.brown@example.com", Subject: models.SubjectHistory, Grade: 88},
		{Name: "Emily Davis", Email: "emily.davis@example.com", Subject: models.SubjectScience, Grade: 90},
	}
}

// NewSeedService constructs a seeding service.
func NewSeedService(repo repository.StudentRepository, enabled bool, logger zerolog.Logger) SeedService {
	return &seedService{
		repo:    repo,
		enabled: enabled,
		logger:  logger.With().Str("component", "seed_service").Logger(),
	}
}

// SeedStudents inserts the default rows when the store holds no students.
// The rows land together or not at all. It returns the number inserted.
func (s *seedService) SeedStudents(ctx context.Context) (int, error) {
	if !s.enabled {
		s.logger.Debug().Msg("student seeding disabled")
		return 0, nil
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if total > 0 {
		s.logger.Debug().Int64("existing", total).Msg("students present, skipping seed")
		return 0, nil
	}

	created, err := s.repo.CreateMany(ctx, DefaultStudents())
	if err != nil {
		return 0, fmt.Errorf("seed students: %w", err)
	}
	inserted := len(created)

	s.logger.Info().Int("inserted", inserted).Msg("students seeded")
	return inserted, nil
}
