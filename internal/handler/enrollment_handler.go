package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// EnrollmentHandler wires course roster routes.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches roster endpoints. importLimiter may be nil.
func (h *EnrollmentHandler) Register(router fiber.Router, importLimiter fiber.Handler) {
	router.Post("/courses/:courseId/import-students", withGuards(h.importStudents, importLimiter)...)
	router.Get("/courses/:courseId/students", h.listStudents)
	router.Post("/courses/:courseId/students", h.enroll)
	router.Get("/courses/:courseId/imports", h.listImports)
	router.Delete("/allStudents", h.deleteAllStudents)
	router.Delete("/:courseId/:studentId", h.remove)
}

func (h *EnrollmentHandler) importStudents(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err)
	}

	var (
		reader   io.Reader
		fileName string
	)
	if header, err := c.FormFile("file"); err == nil && header != nil {
		file, err := header.Open()
		if err != nil {
			return respondError(c, h.logger, err)
		}
		defer file.Close()
		reader = file
		fileName = header.Filename
	}

	report, err := h.service.ImportStudents(c.UserContext(), courseID, fileName, reader)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("course_id", courseID).
		Int("rows", report.Rows).
		Int("created_students", report.CreatedStudents).
		Int("enrolled", report.Enrolled).
		Msg("students imported")

	return utils.SendSuccess(c, "students imported", report)
}

func (h *EnrollmentHandler) listStudents(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err)
	}

	page, err := parsePage(c)
	if err != nil {
		return badRequest(c, err)
	}

	result, err := h.service.ListStudents(c.UserContext(), courseID, page)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, result.Items, "course students retrieved", result.Pagination)
}

func (h *EnrollmentHandler) enroll(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err)
	}

	var payload dto.EnrollStudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, errInvalidPayload)
	}

	result, err := h.service.Enroll(c.UserContext(), courseID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if result.Created {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student enrolled", result)
	}
	return utils.SendSuccess(c, "student already enrolled", result)
}

func (h *EnrollmentHandler) listImports(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err)
	}

	imports, err := h.service.ListImports(c.UserContext(), courseID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "imports retrieved", imports)
}

func (h *EnrollmentHandler) remove(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "courseId")
	if err != nil {
		return badRequest(c, err)
	}
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return badRequest(c, err)
	}

	if err := h.service.Remove(c.UserContext(), courseID, studentID); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "student removed from course", fiber.Map{
		"course_id":  courseID,
		"student_id": studentID,
	})
}

func (h *EnrollmentHandler) deleteAllStudents(c *fiber.Ctx) error {
	if err := h.service.DeleteAllStudents(c.UserContext()); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "all students deleted", nil)
}
