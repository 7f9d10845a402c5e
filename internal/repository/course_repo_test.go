package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/classroom-api/internal/models"
)

func TestCourseRepositoryCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	course := models.Course{Name: "Algorithms", TeacherName: "Dr. Chen"}
	require.NoError(t, repo.Create(ctx, &course))
	require.NotZero(t, course.ID)

	found, err := repo.GetByID(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, "Algorithms", found.Name)

	exists, err := repo.Exists(ctx, course.ID)
	require.NoError(t, err)
	require.True(t, exists)

	_, err = repo.GetByID(ctx, course.ID+100)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCourseRepositoryDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	course := seedCourse(t, db, "Databases")
	other := seedCourse(t, db, "Networks")
	student := seedStudent(t, db, "1001", "Ada")
	enroll(t, db, course.ID, student.ID)
	enroll(t, db, other.ID, student.ID)
	assignment := seedAssignment(t, db, course.ID, "ER diagram")
	kept := seedAssignment(t, db, other.ID, "Subnetting")
	seedSubmission(t, db, assignment.ID, student.ID)
	seedSubmission(t, db, kept.ID, student.ID)

	removed, err := repo.Delete(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{assignment.ID}, removed)

	require.Equal(t, int64(1), countRows(t, db, &models.Course{}))
	require.Equal(t, int64(1), countRows(t, db, &models.Assignment{}))
	require.Equal(t, int64(1), countRows(t, db, &models.Submission{}))
	require.Equal(t, int64(1), countRows(t, db, &models.CourseStudent{}))
	require.Equal(t, int64(1), countRows(t, db, &models.Student{}), "students outlive their courses")

	_, err = repo.Delete(ctx, course.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCourseRepositoryDeleteAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	first := seedCourse(t, db, "A")
	second := seedCourse(t, db, "B")
	student := seedStudent(t, db, "2001", "Grace")
	enroll(t, db, first.ID, student.ID)
	a1 := seedAssignment(t, db, first.ID, "one")
	a2 := seedAssignment(t, db, second.ID, "two")
	seedSubmission(t, db, a1.ID, student.ID)

	removed, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{a1.ID, a2.ID}, removed)

	for _, model := range []interface{}{&models.Course{}, &models.Assignment{}, &models.Submission{}, &models.CourseStudent{}} {
		require.Zero(t, countRows(t, db, model))
	}
}
