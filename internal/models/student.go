package models

import (
	"strings"
	"time"
)

// Student represents a learner tracked by the dashboard.
type Student struct {
	ID        int64     `gorm:"column:id" json:"id"`
	Name      string    `gorm:"column:name" json:"name"`
	Email     string    `gorm:"column:email" json:"email"`
	Subject   Subject   `gorm:"column:subject" json:"subject"`
	Grade     float64   `gorm:"column:grade" json:"grade"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// Subject is the closed set of subjects a student can be enrolled in.
type Subject string

// Known subjects.
const (
	SubjectMath    Subject = "Math"
	SubjectScience Subject = "Science"
	SubjectEnglish Subject = "English"
	SubjectHistory Subject = "History"
)

// Subjects lists every subject in display order.
func Subjects() []Subject {
	return []Subject{SubjectMath, SubjectScience, SubjectEnglish, SubjectHistory}
}

// Valid reports whether s is one of the known subjects.
func (s Subject) Valid() bool {
	switch s {
	case SubjectMath, SubjectScience, SubjectEnglish, SubjectHistory:
		return true
	default:
		return false
	}
}

// ParseSubject matches input against the known subjects case-insensitively.
func ParseSubject(input string) (Subject, bool) {
	trimmed := strings.TrimSpace(input)
	for _, subject := range Subjects() {
		if strings.EqualFold(trimmed, string(subject)) {
			return subject, true
		}
	}
	return "", false
}
