package models

import (
	"time"

	"gorm.io/datatypes"
)

// StudentImport records the outcome of a bulk spreadsheet import into a course.
type StudentImport struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	CourseID         uint              `gorm:"not null;index" json:"course_id"`
	FileName         string            `gorm:"size:255" json:"file_name"`
	Rows             int               `json:"rows"`
	CreatedStudents  int               `json:"created_students"`
	ExistingStudents int               `json:"existing_students"`
	Enrolled         int               `json:"enrolled"`
	AlreadyEnrolled  int               `json:"already_enrolled"`
	Summary          datatypes.JSONMap `gorm:"type:json" json:"summary"`
	CreatedAt        time.Time         `json:"created_at"`
}

// TableName returns the import audit table name.
func (StudentImport) TableName() string {
	return "student_imports"
}
