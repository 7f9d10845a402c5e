package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/models"
)

func TestCourseHandlerCreateListAndGet(t *testing.T) {
	app := setupApp(t)

	resp, body := app.doJSON(t, http.MethodPost, "/api/courses", map[string]string{
		"course_name":    "Operating Systems",
		"course_teacher": "Dr. Halvorsen",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, body.Success)

	var created dto.CourseResponse
	decodeData(t, body, &created)
	require.NotZero(t, created.ID)
	require.Equal(t, "Operating Systems", created.Name)

	resp, body = app.doJSON(t, http.MethodGet, "/api/courses", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var courses []dto.CourseResponse
	decodeData(t, body, &courses)
	require.Len(t, courses, 1)

	resp, body = app.doJSON(t, http.MethodGet, fmt.Sprintf("/api/courses/%d", created.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var fetched dto.CourseResponse
	decodeData(t, body, &fetched)
	require.Equal(t, "Dr. Halvorsen", fetched.TeacherName)
}

func TestCourseHandlerRejectsMissingFields(t *testing.T) {
	app := setupApp(t)

	resp, body := app.doJSON(t, http.MethodPost, "/api/courses", map[string]string{"course_name": "Compilers"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "missing required fields", body.Message)
	require.Contains(t, string(body.Details), "teacher_name")
	validateContract(t, "error.schema.json", body)
}

func TestCourseHandlerNotFoundAndInvalidID(t *testing.T) {
	app := setupApp(t)

	resp, body := app.doJSON(t, http.MethodGet, "/api/courses/999", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "course not found", body.Message)

	resp, _ = app.doJSON(t, http.MethodGet, "/api/courses/abc", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = app.doJSON(t, http.MethodPut, "/api/courses/999", map[string]string{"course_name": "Ghost"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCourseHandlerPartialUpdateKeepsTeacher(t *testing.T) {
	app := setupApp(t)
	course := app.seedCourse(t, "Databases")

	resp, body := app.doJSON(t, http.MethodPut, fmt.Sprintf("/api/courses/%d", course.ID), map[string]string{"course_name": "Advanced Databases"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated dto.CourseResponse
	decodeData(t, body, &updated)
	require.Equal(t, "Advanced Databases", updated.Name)
	require.Equal(t, course.TeacherName, updated.TeacherName)
}

func TestCourseHandlerDeleteCascades(t *testing.T) {
	app := setupApp(t)
	course := app.seedCourse(t, "Networks")
	other := app.seedCourse(t, "Graphics")
	student := app.seedStudent(t, "S-100", "Amara Nwosu")
	app.enroll(t, course.ID, student.ID)
	app.seedAssignment(t, course.ID, "Packet capture", fixedDue)

	resp, _ := app.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/courses/%d", course.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.EqualValues(t, 1, app.count(t, &models.Course{}))
	require.EqualValues(t, 0, app.count(t, &models.CourseStudent{}))
	require.EqualValues(t, 0, app.count(t, &models.Assignment{}))

	resp, _ = app.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/courses/%d", course.ID), nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	app.seedAssignment(t, other.ID, "Ray tracer", fixedDue)
	resp, body := app.doJSON(t, http.MethodDelete, "/api/courses/allCourses", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, body.Success)
	require.EqualValues(t, 0, app.count(t, &models.Course{}))
	require.EqualValues(t, 0, app.count(t, &models.Assignment{}))
	require.EqualValues(t, 1, app.count(t, &models.Student{}))
}
