package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
)

func TestCourseServiceCreateAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	svc := env.courseService()
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CourseCreateRequest{Name: "  Linear Algebra ", TeacherName: "Dr. Noether"})
	require.NoError(t, err)
	require.Equal(t, "Linear Algebra", created.Name)

	updated, err := svc.Update(ctx, created.ID, dto.CourseUpdateRequest{TeacherName: "Dr. Hilbert"})
	require.NoError(t, err)
	require.Equal(t, "Linear Algebra", updated.Name, "empty fields keep their value")
	require.Equal(t, "Dr. Hilbert", updated.TeacherName)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Dr. Hilbert", fetched.TeacherName)

	_, err = svc.Update(ctx, created.ID+10, dto.CourseUpdateRequest{Name: "x"})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourseServiceCreateRequiresFields(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.courseService().Create(context.Background(), dto.CourseCreateRequest{Name: "Only name"})
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	require.Zero(t, env.count(t, &models.Course{}))
}

func TestCourseServiceDeleteRemovesUploadFolders(t *testing.T) {
	env := newTestEnv(t)
	svc := env.courseService()
	ctx := context.Background()

	course := env.seedCourse(t, "Physics")
	assignment := env.seedAssignment(t, course.ID, "Optics", time.Now().Add(time.Hour))
	_, err := env.store.Save(ctx, assignment.UploadFolder(), "1_a.pdf", strings.NewReader("pdf"))
	require.NoError(t, err)

	result, err := svc.Delete(ctx, course.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.RemovedAssignments)

	_, err = env.store.List(ctx, assignment.UploadFolder())
	require.Error(t, err)
	require.Zero(t, env.count(t, &models.Assignment{}))

	_, err = svc.Delete(ctx, course.ID)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCourseServiceDeleteAll(t *testing.T) {
	env := newTestEnv(t)
	svc := env.courseService()

	env.seedCourse(t, "One")
	env.seedCourse(t, "Two")

	_, err := svc.DeleteAll(context.Background())
	require.NoError(t, err)

	courses, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, courses)
}
