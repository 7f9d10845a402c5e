package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Name        string `json:"course_name" validate:"required,max=255"`
	TeacherName string `json:"course_teacher" validate:"required,max=255"`
}

// CourseUpdateRequest carries a partial update. Empty fields keep their value.
type CourseUpdateRequest struct {
	Name        string `json:"course_name" validate:"omitempty,max=255"`
	TeacherName string `json:"course_teacher" validate:"omitempty,max=255"`
}

// CourseResponse is the course representation returned to clients.
type CourseResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"course_name"`
	TeacherName string    `json:"course_teacher"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:          model.ID,
		Name:        model.Name,
		TeacherName: model.TeacherName,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewCourseResponseSlice converts a slice of models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}

// CourseDeleteResponse reports what a course delete removed.
type CourseDeleteResponse struct {
	CourseIDs          []uint `json:"course_ids,omitempty"`
	RemovedAssignments int    `json:"removed_assignments"`
}
