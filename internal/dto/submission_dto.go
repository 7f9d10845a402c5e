package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// FeedbackRequest grades a student's submission. Both studentId and student_id are accepted.
type FeedbackRequest struct {
	StudentID       uint     `json:"student_id" validate:"required,gt=0"`
	LegacyStudentID uint     `json:"studentId" validate:"-"`
	Feedback        string   `json:"feedback" validate:"max=10000"`
	Grade           *float64 `json:"grade" validate:"omitempty,gte=0,lte=100"`
}

// Normalize folds the camelCase student id into StudentID.
func (r *FeedbackRequest) Normalize() {
	if r.StudentID == 0 {
		r.StudentID = r.LegacyStudentID
	}
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint       `json:"id"`
	AssignmentID uint       `json:"assignment_id"`
	StudentID    uint       `json:"student_id"`
	FilePath     string     `json:"file_path"`
	FileName     string     `json:"file_name"`
	Status       string     `json:"status"`
	Feedback     string     `json:"feedback"`
	Grade        *float64   `json:"grade"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	GradedAt     *time.Time `json:"graded_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SubmissionWithStudentResponse adds the submitting student's identity.
type SubmissionWithStudentResponse struct {
	SubmissionResponse
	StudentNumber string `json:"student_number"`
	FullName      string `json:"full_name"`
}

// SubmissionListResponse wraps a paginated submission listing.
type SubmissionListResponse struct {
	Items      []SubmissionWithStudentResponse `json:"items"`
	Pagination PaginationMeta                  `json:"pagination"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		FilePath:     model.FilePath,
		FileName:     model.FileName,
		Status:       model.Status,
		Feedback:     model.Feedback,
		Grade:        model.Grade,
		SubmittedAt:  model.SubmittedAt,
		GradedAt:     model.GradedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewSubmissionResponseSlice converts a slice of models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}

// NewSubmissionWithStudentResponse converts a submission with its preloaded student.
func NewSubmissionWithStudentResponse(model models.Submission) SubmissionWithStudentResponse {
	return SubmissionWithStudentResponse{
		SubmissionResponse: NewSubmissionResponse(model),
		StudentNumber:      model.Student.StudentNumber,
		FullName:           model.Student.FullName,
	}
}
