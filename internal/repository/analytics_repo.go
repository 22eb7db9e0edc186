package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/models"
)

// SubjectAverage is the mean grade of one subject.
type SubjectAverage struct {
	Subject models.Subject
	Average float64
}

// AnalyticsRepository supplies the read-only aggregates behind the dashboard.
// An empty subject means "all subjects".
type AnalyticsRepository interface {
	CountStudents(ctx context.Context, subject models.Subject) (int64, error)
	AverageGradeBySubject(ctx context.Context, subject models.Subject) ([]SubjectAverage, error)
	RecentStudents(ctx context.Context, subject models.Subject, limit int) ([]models.Student, error)
}

type analyticsRepository struct {
	gw *database.Gateway
}

// NewAnalyticsRepository constructs the analytics repository.
func NewAnalyticsRepository(gw *database.Gateway) AnalyticsRepository {
	return &analyticsRepository{gw: gw}
}

func subjectClause(subject models.Subject) (string, []interface{}) {
	if subject == "" {
		return "", nil
	}
	return " WHERE subject = ?", []interface{}{string(subject)}
}

func (r *analyticsRepository) CountStudents(ctx context.Context, subject models.Subject) (int64, error) {
	where, args := subjectClause(subject)
	var total int64
	if _, err := r.gw.FetchOne(ctx, &total, "SELECT COUNT(*) FROM students"+where, args...); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

func (r *analyticsRepository) AverageGradeBySubject(ctx context.Context, subject models.Subject) ([]SubjectAverage, error) {
	where, args := subjectClause(subject)
	averages := make([]SubjectAverage, 0, 4)
	query := "SELECT subject, AVG(grade) AS average FROM students" + where + " GROUP BY subject ORDER BY subject"
	if err := r.gw.FetchMany(ctx, &averages, query, args...); err != nil {
		return nil, fmt.Errorf("average grade by subject: %w", err)
	}
	return averages, nil
}

func (r *analyticsRepository) RecentStudents(ctx context.Context, subject models.Subject, limit int) ([]models.Student, error) {
	where, args := subjectClause(subject)
	args = append(args, limit)
	students := make([]models.Student, 0, limit)
	query := "SELECT " + studentColumns + " FROM students" + where + " ORDER BY created_at DESC, id DESC LIMIT ?"
	if err := r.gw.FetchMany(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("recent students: %w", err)
	}
	return students, nil
}
