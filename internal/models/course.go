package models

import "time"

// Course represents a class taught by a teacher.
type Course struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"column:course_name;size:255;not null" json:"course_name"`
	TeacherName string       `gorm:"column:teacher_name;size:255;not null" json:"course_teacher"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Assignments []Assignment `json:"-"`
}

// TableName pins the table name used by the course catalogue.
func (Course) TableName() string {
	return "courses"
}
