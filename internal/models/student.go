package models

import "time"

// Student represents a learner identified by an external student number.
type Student struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	StudentNumber string    `gorm:"size:64;uniqueIndex;not null" json:"student_number"`
	Password      string    `gorm:"size:255;not null" json:"-"`
	FullName      string    `gorm:"size:255;not null" json:"full_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName keeps students in the shared users table.
func (Student) TableName() string {
	return "users"
}
