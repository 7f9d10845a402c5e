package dto

import (
	"time"

	"github.com/noah-isme/classroom-api/internal/models"
)

// EnrollStudentRequest links an existing student to a course.
type EnrollStudentRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}

// EnrollmentResponse reports the outcome of a single enrollment.
type EnrollmentResponse struct {
	CourseID  uint `json:"course_id"`
	StudentID uint `json:"student_id"`
	Created   bool `json:"created"`
}

// CourseStudentListResponse wraps the paginated roster of a course.
type CourseStudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// StudentImportReport summarizes a bulk spreadsheet import.
type StudentImportReport struct {
	ImportID         uint   `json:"import_id"`
	CourseID         uint   `json:"course_id"`
	FileName         string `json:"file_name"`
	Rows             int    `json:"rows"`
	DuplicateRows    int    `json:"duplicate_rows"`
	CreatedStudents  int    `json:"created_students"`
	ExistingStudents int    `json:"existing_students"`
	Enrolled         int    `json:"enrolled"`
	AlreadyEnrolled  int    `json:"already_enrolled"`
}

// StudentImportResponse serializes an import audit entry.
type StudentImportResponse struct {
	ID               uint                   `json:"id"`
	CourseID         uint                   `json:"course_id"`
	FileName         string                 `json:"file_name"`
	Rows             int                    `json:"rows"`
	CreatedStudents  int                    `json:"created_students"`
	ExistingStudents int                    `json:"existing_students"`
	Enrolled         int                    `json:"enrolled"`
	AlreadyEnrolled  int                    `json:"already_enrolled"`
	Summary          map[string]interface{} `json:"summary"`
	CreatedAt        time.Time              `json:"created_at"`
}

// NewStudentImportResponseSlice converts audit rows into DTOs.
func NewStudentImportResponseSlice(imports []models.StudentImport) []StudentImportResponse {
	responses := make([]StudentImportResponse, 0, len(imports))
	for _, item := range imports {
		responses = append(responses, StudentImportResponse{
			ID:               item.ID,
			CourseID:         item.CourseID,
			FileName:         item.FileName,
			Rows:             item.Rows,
			CreatedStudents:  item.CreatedStudents,
			ExistingStudents: item.ExistingStudents,
			Enrolled:         item.Enrolled,
			AlreadyEnrolled:  item.AlreadyEnrolled,
			Summary:          map[string]interface{}(item.Summary),
			CreatedAt:        item.CreatedAt,
		})
	}
	return responses
}
