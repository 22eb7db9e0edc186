package dto

import "time"

// AnalyticsRequest holds the optional subject filter and recent-row count.
type AnalyticsRequest struct {
	Subject string
	Limit   int
}

// AnalyticsResponse aggregates dashboard statistics.
type AnalyticsResponse struct {
	TotalStudents         int64              `json:"totalStudents"`
	AverageGradeBySubject map[string]float64 `json:"averageGradeBySubject"`
	RecentStudents        []StudentResponse  `json:"recentStudents"`
	Subject               string             `json:"subject,omitempty"`
	GeneratedAt           time.Time          `json:"generatedAt"`
}
