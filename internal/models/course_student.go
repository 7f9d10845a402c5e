package models

// CourseStudent links a student to a course. The pair is unique.
type CourseStudent struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	CourseID  uint    `gorm:"not null;uniqueIndex:idx_course_student" json:"course_id"`
	StudentID uint    `gorm:"not null;uniqueIndex:idx_course_student;index" json:"student_id"`
	Course    Course  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student   Student `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// TableName returns the enrollment table name.
func (CourseStudent) TableName() string {
	return "course_students"
}
