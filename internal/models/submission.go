package models

import (
	"strconv"
	"time"
)

const (
	// SubmissionStatusUnsubmitted is reported for assignments without a submission. It is never stored.
	SubmissionStatusUnsubmitted = "unsubmitted"
	// SubmissionStatusSubmitted indicates the file was uploaded on time and awaits grading.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates the submission has received feedback.
	SubmissionStatusGraded = "graded"
	// SubmissionStatusLate indicates the file was uploaded after the due date.
	SubmissionStatusLate = "late"
)

// Submission represents a file submitted by a student for an assignment.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student" json:"student_id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submission_assignment_student;index" json:"assignment_id"`
	FilePath     string     `gorm:"size:1024" json:"file_path"`
	FileName     string     `gorm:"size:255" json:"file_name"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	Grade        *float64   `json:"grade"`
	Status       string     `gorm:"size:32;not null;default:submitted" json:"status"`
	SubmittedAt  time.Time  `json:"submitted_at"`
	GradedAt     *time.Time `json:"graded_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assignment   Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student      Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TableName returns the submission table name.
func (Submission) TableName() string {
	return "submissions"
}

// IsGraded reports whether the submission has received feedback.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// SubmissionStatusFor returns the status a new upload receives given the deadline.
func SubmissionStatusFor(assignment Assignment, submittedAt time.Time) string {
	if assignment.IsPastDue(submittedAt) {
		return SubmissionStatusLate
	}
	return SubmissionStatusSubmitted
}

// AssignmentFolder names the storage folder for an assignment id.
func AssignmentFolder(assignmentID uint) string {
	return strconv.FormatUint(uint64(assignmentID), 10)
}
