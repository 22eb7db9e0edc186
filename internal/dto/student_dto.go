package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

// NewPaginationMeta derives page metadata from the requested page and the total count.
func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	return PaginationMeta{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: pageSize,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}
}

// StudentListRequest carries the raw list parameters after parsing.
type StudentListRequest struct {
	Subject   string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// StudentResponse serializes a student record.
type StudentResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Grade     float64   `json:"grade"`
	CreatedAt time.Time `json:"created_at"`
}

// NewStudentResponse converts a student model into a DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:        student.ID,
		Name:      student.Name,
		Email:     student.Email,
		Subject:   string(student.Subject),
		Grade:     student.Grade,
		CreatedAt: student.CreatedAt,
	}
}

// NewStudentResponses converts a slice of models, never returning nil.
func NewStudentResponses(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}

// StudentListResponse wraps a page of students.
type StudentListResponse struct {
	Students   []StudentResponse `json:"students"`
	Pagination PaginationMeta    `json:"pagination"`
}

// StudentCreateRequest is the payload for creating a student.
type StudentCreateRequest struct {
	Name    string   `json:"name" validate:"required,min=2,max=100,personname"`
	Email   string   `json:"email" validate:"required,max=255,email,notdisposable"`
	Subject string   `json:"subject" validate:"required,oneof=Math Science English History"`
	Grade   *float64 `json:"grade" validate:"required,gte=0,lte=100"`
}

// StudentUpdateRequest is a partial update. Only the fields declared here can
// ever reach the update statement; anything else in the body is ignored.
type StudentUpdateRequest struct {
	Name    *string  `json:"name" validate:"omitnil,min=2,max=100,personname"`
	Email   *string  `json:"email" validate:"omitnil,max=255,email,notdisposable"`
	Subject *string  `json:"subject" validate:"omitnil,oneof=Math Science English History"`
	Grade   *float64 `json:"grade" validate:"omitnil,gte=0,lte=100"`
}

// Empty reports whether no updatable field was provided.
func (r StudentUpdateRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Subject == nil && r.Grade == nil
}
