package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

var errStudentIDRequired = errors.New("studentId is required")

// AssignmentHandler wires assignment and submission HTTP routes.
type AssignmentHandler struct {
	assignments service.AssignmentService
	submissions service.SubmissionService
	logger      zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(assignments service.AssignmentService, submissions service.SubmissionService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignments: assignments,
		submissions: submissions,
		logger:      logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("/subitByAssignment/:assignmentId", h.pageSubmissions)
	router.Get("/students/:studentId/assignments", h.studentSubmissions)
	router.Get("/student/:studentId/all-assignments", h.studentOverview)
	router.Get("/downloadAllAss/:assignmentId", h.files)

	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Post("/:assignmentId/submit", h.submit)
	router.Get("/:assignmentId/submissions", h.submissionsByAssignment)
	router.Post("/:assignmentId/feedback", h.feedback)
	router.Get("/:assignmentId/unsubmitted", h.unsubmitted)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return badRequest(c, err)
	}

	req := dto.AssignmentListRequest{
		Title:       strings.TrimSpace(c.Query("title")),
		PageRequest: page,
	}
	if raw := strings.TrimSpace(c.Query("course_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return badRequest(c, errors.New("course_id must be numeric"))
		}
		courseID := uint(parsed)
		req.CourseID = &courseID
	}

	result, err := h.assignments.List(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, result.Items, "assignments retrieved", result.Pagination)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	assignment, err := h.assignments.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, errInvalidPayload)
	}

	assignment, err := h.assignments.Create(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	var payload dto.AssignmentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, errInvalidPayload)
	}

	assignment, err := h.assignments.Update(c.UserContext(), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	if err := h.assignments.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment deleted", fiber.Map{"id": id})
}

func (h *AssignmentHandler) submit(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return badRequest(c, err)
	}

	studentID, ok := formUint(c, "studentId", "student_id")
	if !ok {
		return badRequest(c, errStudentIDRequired)
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	submission, err := h.submissions.Submit(c.UserContext(), assignmentID, studentID, file)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("assignment_id", assignmentID).
		Uint("student_id", studentID).
		Str("status", submission.Status).
		Msg("submission stored")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission stored", submission)
}

func (h *AssignmentHandler) submissionsByAssignment(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return badRequest(c, err)
	}

	submissions, err := h.submissions.ListByAssignment(c.UserContext(), assignmentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *AssignmentHandler) pageSubmissions(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return badRequest(c, err)
	}

	page, err := parsePage(c)
	if err != nil {
		return badRequest(c, err)
	}

	result, err := h.submissions.PageByAssignment(c.UserContext(), assignmentID, page)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, result.Items, "submissions retrieved", result.Pagination)
}

func (h *AssignmentHandler) feedback(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return badRequest(c, err)
	}

	var payload dto.FeedbackRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, errInvalidPayload)
	}
	payload.Normalize()
	if payload.StudentID == 0 {
		return badRequest(c, errStudentIDRequired)
	}

	submission, err := h.submissions.Feedback(c.UserContext(), assignmentID, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "feedback saved", submission)
}

func (h *AssignmentHandler) studentSubmissions(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return badRequest(c, err)
	}

	submissions, err := h.submissions.ListByStudent(c.UserContext(), studentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *AssignmentHandler) studentOverview(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return badRequest(c, err)
	}

	items, err := h.assignments.StudentOverview(c.UserContext(), studentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", items)
}

func (h *AssignmentHandler) files(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return badRequest(c, err)
	}

	files, err := h.assignments.Files(c.UserContext(), assignmentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignment files retrieved", files)
}

func (h *AssignmentHandler) unsubmitted(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return badRequest(c, err)
	}

	students, err := h.assignments.Unsubmitted(c.UserContext(), assignmentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "unsubmitted students retrieved", students)
}
