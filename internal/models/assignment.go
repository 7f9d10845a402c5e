package models

import "time"

// Assignment represents a piece of work handed out within a course.
type Assignment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:255;not null;index" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	DueDate     time.Time    `gorm:"not null" json:"due_date"`
	CourseID    uint         `gorm:"not null;index" json:"course_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Course      Course       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Submissions []Submission `json:"-"`
}

// TableName returns the assignment table name.
func (Assignment) TableName() string {
	return "assignments"
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// UploadFolder names the storage folder holding the assignment's submission files.
func (a Assignment) UploadFolder() string {
	return AssignmentFolder(a.ID)
}
