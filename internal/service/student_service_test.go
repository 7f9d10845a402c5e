package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
)

func TestStudentServiceCreateAndLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := env.studentService()
	ctx := context.Background()

	name := gofakeit.Name()
	created, err := svc.Create(ctx, dto.StudentCreateRequest{StudentNumber: "2024001", FullName: name})
	require.NoError(t, err)
	require.Equal(t, name, created.FullName)

	_, err = svc.Create(ctx, dto.StudentCreateRequest{StudentNumber: "2024001", FullName: "Someone Else"})
	require.ErrorIs(t, err, ErrDuplicateStudentNumber)

	login, err := svc.Login(ctx, dto.StudentLoginRequest{StudentNumber: "2024001", Password: "2024001"})
	require.NoError(t, err)
	require.NotEmpty(t, login.Token)
	require.Equal(t, created.ID, login.Student.ID)

	claims, err := env.tokens.Parse(login.Token)
	require.NoError(t, err)
	subject, err := claims.SubjectID()
	require.NoError(t, err)
	require.Equal(t, created.ID, subject)

	_, err = svc.Login(ctx, dto.StudentLoginRequest{StudentNumber: "2024001", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.StudentLoginRequest{StudentNumber: "missing", Password: "x"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestStudentServiceResetPasswordAndRename(t *testing.T) {
	env := newTestEnv(t)
	svc := env.studentService()
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.StudentCreateRequest{StudentNumber: "77", FullName: "Old Name", Password: "custom"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.StudentLoginRequest{StudentNumber: "77", Password: "77"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.ResetPassword(ctx, created.ID)
	require.NoError(t, err)
	_, err = svc.Login(ctx, dto.StudentLoginRequest{StudentNumber: "77", Password: "77"})
	require.NoError(t, err)

	renamed, err := svc.Rename(ctx, created.ID, dto.StudentRenameRequest{FullName: "New Name"})
	require.NoError(t, err)
	require.Equal(t, "New Name", renamed.FullName)

	unchanged, err := svc.Rename(ctx, created.ID, dto.StudentRenameRequest{})
	require.NoError(t, err)
	require.Equal(t, "New Name", unchanged.FullName)

	_, err = svc.ResetPassword(ctx, created.ID+1)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestStudentServiceListPaginates(t *testing.T) {
	env := newTestEnv(t)
	svc := env.studentService()

	for i := 0; i < 15; i++ {
		env.seedStudent(t, gofakeit.Numerify("S#########"), gofakeit.Name())
	}

	list, err := svc.List(context.Background(), dto.StudentListRequest{PageRequest: dto.PageRequest{Page: 2, PageSize: 10}})
	require.NoError(t, err)
	require.Len(t, list.Items, 5)
	require.Equal(t, int64(15), list.Pagination.TotalItems)
	require.Equal(t, 2, list.Pagination.TotalPages)
}

func TestStudentServiceDeleteRemovesSubmissionFiles(t *testing.T) {
	env := newTestEnv(t)
	svc := env.studentService()
	ctx := context.Background()

	course := env.seedCourse(t, "Art")
	student := env.seedStudent(t, "88", "Frida")
	env.enroll(t, course.ID, student.ID)
	assignment := env.seedAssignment(t, course.ID, "Portrait", time.Now().Add(time.Hour))

	stored, err := env.store.Save(ctx, assignment.UploadFolder(), "88_Frida.png", strings.NewReader("png"))
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		FilePath:     stored.URL,
		FileName:     stored.Name,
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  time.Now(),
	}).Error)

	require.NoError(t, svc.Delete(ctx, student.ID))

	files, err := env.store.List(ctx, assignment.UploadFolder())
	require.NoError(t, err)
	require.Empty(t, files)
	require.Zero(t, env.count(t, &models.Submission{}))
	require.Zero(t, env.count(t, &models.CourseStudent{}))

	require.ErrorIs(t, svc.Delete(ctx, student.ID), ErrStudentNotFound)
}
