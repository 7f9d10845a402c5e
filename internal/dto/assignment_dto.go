package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/pkg/storage"
)

// DateLayout is accepted for due dates in addition to RFC3339.
const DateLayout = "2006-01-02"

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	Title       string `form:"title" json:"title" validate:"required,max=255"`
	Description string `form:"description" json:"description" validate:"max=10000"`
	DueDate     string `form:"due_date" json:"due_date" validate:"required"`
	CourseID    uint   `form:"course_id" json:"course_id" validate:"required,gt=0"`
}

// AssignmentUpdateRequest carries a partial update. Zero values keep the current field.
type AssignmentUpdateRequest struct {
	Title       string `form:"title" json:"title" validate:"omitempty,max=255"`
	Description string `form:"description" json:"description" validate:"max=10000"`
	DueDate     string `form:"due_date" json:"due_date"`
	CourseID    uint   `form:"course_id" json:"course_id"`
}

// AssignmentListRequest defines filters for listing assignments.
type AssignmentListRequest struct {
	Title    string
	CourseID *uint
	PageRequest
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	CourseID    uint      `json:"course_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AssignmentListResponse wraps a paginated assignment listing.
type AssignmentListResponse struct {
	Items      []AssignmentResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// StudentAssignmentResponse is one line of a student's assignment overview.
type StudentAssignmentResponse struct {
	AssignmentID uint       `json:"assignment_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DueDate      time.Time  `json:"due_date"`
	CourseID     uint       `json:"course_id"`
	Status       string     `json:"status"`
	Feedback     string     `json:"feedback"`
	Grade        *float64   `json:"grade"`
	FilePath     string     `json:"file_path,omitempty"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
}

// AssignmentFilesResponse lists the uploaded files of an assignment.
type AssignmentFilesResponse struct {
	AssignmentID uint           `json:"assignment_id"`
	Files        []storage.File `json:"files"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		DueDate:     model.DueDate,
		CourseID:    model.CourseID,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}

// NewStudentAssignmentResponse merges an assignment with the student's submission, if any.
func NewStudentAssignmentResponse(assignment models.Assignment, submission *models.Submission) StudentAssignmentResponse {
	item := StudentAssignmentResponse{
		AssignmentID: assignment.ID,
		Title:        assignment.Title,
		Description:  assignment.Description,
		DueDate:      assignment.DueDate,
		CourseID:     assignment.CourseID,
		Status:       models.SubmissionStatusUnsubmitted,
	}
	if submission == nil {
		return item
	}

	submittedAt := submission.SubmittedAt
	item.Status = submission.Status
	item.Feedback = submission.Feedback
	item.Grade = submission.Grade
	item.FilePath = submission.FilePath
	item.SubmittedAt = &submittedAt
	return item
}
