package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/models"
)

func TestAnalyticsRepositoryAggregates(t *testing.T) {
	gw := setupTestGateway(t)
	students := NewStudentRepository(gw)
	repo := NewAnalyticsRepository(gw)

	seedStudents(t, students,
		NewStudent{Name: "John Doe", Email: "john@example.com", Subject: models.SubjectMath, Grade: 85},
		NewStudent{Name: "Jane Smith", Email: "jane@example.com", Subject: models.SubjectScience, Grade: 92},
		NewStudent{Name: "Sarah Wilson", Email: "sarah@example.com", Subject: models.SubjectMath, Grade: 95},
	)

	total, err := repo.CountStudents(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, int64(3), total)

	total, err = repo.CountStudents(context.Background(), models.SubjectMath)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	averages, err := repo.AverageGradeBySubject(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, []SubjectAverage{
		{Subject: models.SubjectMath, Average: 90},
		{Subject: models.SubjectScience, Average: 92},
	}, averages)

	averages, err = repo.AverageGradeBySubject(context.Background(), models.SubjectScience)
	require.NoError(t, err)
	require.Len(t, averages, 1)

	recent, err := repo.RecentStudents(context.Background(), "", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"Sarah Wilson", "Jane Smith"}, names(recent))

	recent, err = repo.RecentStudents(context.Background(), models.SubjectMath, 5)
	require.NoError(t, err)
	require.Equal(t, []string{"Sarah Wilson", "John Doe"}, names(recent))
}
