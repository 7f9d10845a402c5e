package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// StudentListRequest defines filters for listing students.
type StudentListRequest struct {
	StudentNumber string
	PageRequest
}

// StudentCreateRequest creates a single student. Password defaults to the student number.
type StudentCreateRequest struct {
	StudentNumber string `json:"student_number" validate:"required,max=64"`
	FullName      string `json:"full_name" validate:"required,max=255"`
	Password      string `json:"password" validate:"omitempty,max=72"`
}

// StudentRenameRequest changes a student's name. An empty name keeps the current one.
type StudentRenameRequest struct {
	FullName string `json:"full_name" validate:"omitempty,max=255"`
}

// StudentLoginRequest carries login credentials.
type StudentLoginRequest struct {
	StudentNumber string `json:"student_number" validate:"required"`
	Password      string `json:"password" validate:"required"`
}

// StudentResponse serializes student data. The password hash is never exposed.
type StudentResponse struct {
	ID            uint      `json:"id"`
	StudentNumber string    `json:"student_number"`
	FullName      string    `json:"full_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StudentListResponse wraps a paginated student response.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// StudentLoginResponse returns the issued token.
type StudentLoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Student   StudentResponse `json:"student"`
}

// NewStudentResponse converts a model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	return StudentResponse{
		ID:            model.ID,
		StudentNumber: model.StudentNumber,
		FullName:      model.FullName,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewStudentResponseSlice converts a slice of models into DTOs.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}
