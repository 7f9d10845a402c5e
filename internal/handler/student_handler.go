package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

// StudentRoutes carries the guards applied to student routes.
type StudentRoutes struct {
	LoginLimiter fiber.Handler
	SelfService  []fiber.Handler
}

// StudentHandler wires student account routes.
type StudentHandler struct {
	students    service.StudentService
	assignments service.AssignmentService
	logger      zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students service.StudentService, assignments service.AssignmentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		students:    students,
		assignments: assignments,
		logger:      logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student endpoints to the router group.
func (h *StudentHandler) Register(router fiber.Router, routes StudentRoutes) {
	router.Post("/login", withGuards(h.login, routes.LoginLimiter)...)
	router.Get("/me", withGuards(h.me, routes.SelfService...)...)
	router.Get("/me/assignments", withGuards(h.myAssignments, routes.SelfService...)...)

	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Put("/rePass/:id", h.resetPassword)
	router.Put("/reName/:id", h.rename)
	router.Get("/:id", h.get)
	router.Delete("/:id", h.delete)
}

func withGuards(handler fiber.Handler, guards ...fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(guards)+1)
	for _, guard := range guards {
		if guard != nil {
			chain = append(chain, guard)
		}
	}
	return append(chain, handler)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return badRequest(c, err)
	}

	result, err := h.students.List(c.UserContext(), dto.StudentListRequest{
		StudentNumber: strings.TrimSpace(c.Query("student_number")),
		PageRequest:   page,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, result.Items, "students retrieved", result.Pagination)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	student, err := h.students.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, errInvalidPayload)
	}

	student, err := h.students.Create(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student created", student)
}

func (h *StudentHandler) resetPassword(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	student, err := h.students.ResetPassword(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "password reset", student)
}

func (h *StudentHandler) rename(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	var payload dto.StudentRenameRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, errInvalidPayload)
	}

	student, err := h.students.Rename(c.UserContext(), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "student renamed", student)
}

func (h *StudentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	if err := h.students.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "student deleted", fiber.Map{"id": id})
}

func (h *StudentHandler) login(c *fiber.Ctx) error {
	var payload dto.StudentLoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, errInvalidPayload)
	}

	result, err := h.students.Login(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().Uint("student_id", result.Student.ID).Msg("student logged in")
	return utils.SendSuccess(c, "login successful", result)
}

func (h *StudentHandler) me(c *fiber.Ctx) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	student, err := h.students.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "profile retrieved", student)
}

func (h *StudentHandler) myAssignments(c *fiber.Ctx) error {
	id, ok := middleware.UserID(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	items, err := h.assignments.StudentOverview(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", items)
}
