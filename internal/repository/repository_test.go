package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.Student{},
		&models.CourseStudent{},
		&models.Assignment{},
		&models.Submission{},
		&models.StudentImport{},
	))
	return db
}

func seedCourse(t *testing.T, db *gorm.DB, name string) models.Course {
	t.Helper()
	course := models.Course{Name: name, TeacherName: "Ms. Rivera"}
	require.NoError(t, db.Create(&course).Error)
	return course
}

func seedStudent(t *testing.T, db *gorm.DB, number, name string) models.Student {
	t.Helper()
	student := models.Student{StudentNumber: number, FullName: name, Password: "hash"}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func seedAssignment(t *testing.T, db *gorm.DB, courseID uint, title string) models.Assignment {
	t.Helper()
	assignment := models.Assignment{Title: title, CourseID: courseID, DueDate: time.Now().Add(48 * time.Hour)}
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

func seedSubmission(t *testing.T, db *gorm.DB, assignmentID, studentID uint) models.Submission {
	t.Helper()
	submission := models.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		FilePath:     "/uploads/x.pdf",
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  time.Now(),
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func enroll(t *testing.T, db *gorm.DB, courseID, studentID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.CourseStudent{CourseID: courseID, StudentID: studentID}).Error)
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var total int64
	require.NoError(t, db.Model(model).Count(&total).Error)
	return total
}
