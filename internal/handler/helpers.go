package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/utils"
)

var (
	errInvalidIdentifier = errors.New("invalid identifier")
	errInvalidPayload    = errors.New("invalid request payload")
	errInvalidPage       = errors.New("page and limit must be numeric")
	errPageOutOfRange    = errors.New("page is out of range")
)

// errorStatuses maps service sentinels onto HTTP status codes. The sentinel
// text is used as the response message so wrapped causes never leak.
var errorStatuses = []struct {
	target error
	status int
}{
	{service.ErrCourseNotFound, fiber.StatusNotFound},
	{service.ErrStudentNotFound, fiber.StatusNotFound},
	{service.ErrAssignmentNotFound, fiber.StatusNotFound},
	{service.ErrSubmissionNotFound, fiber.StatusNotFound},
	{service.ErrEnrollmentNotFound, fiber.StatusNotFound},
	{service.ErrUploadFolderNotFound, fiber.StatusNotFound},
	{service.ErrSpreadsheetEmpty, fiber.StatusBadRequest},
	{service.ErrSpreadsheetMissingFields, fiber.StatusBadRequest},
	{service.ErrSpreadsheetInvalid, fiber.StatusBadRequest},
	{service.ErrSpreadsheetValueTooLong, fiber.StatusBadRequest},
	{service.ErrFileRequired, fiber.StatusBadRequest},
	{service.ErrInvalidDueDate, fiber.StatusBadRequest},
	{service.ErrUploadTypeNotAllowed, fiber.StatusBadRequest},
	{service.ErrSpreadsheetTooLarge, fiber.StatusRequestEntityTooLarge},
	{service.ErrUploadTooLarge, fiber.StatusRequestEntityTooLarge},
	{service.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{service.ErrDuplicateStudentNumber, fiber.StatusConflict},
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errInvalidIdentifier
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, keys ...string) (int, error) {
	for _, key := range keys {
		value := strings.TrimSpace(c.Query(key))
		if value == "" {
			continue
		}
		return strconv.Atoi(value)
	}
	return 0, nil
}

// parsePage reads page and limit (alias page_size) from the query string.
func parsePage(c *fiber.Ctx) (dto.PageRequest, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return dto.PageRequest{}, errInvalidPage
	}
	if page > dto.MaxPage {
		return dto.PageRequest{}, errPageOutOfRange
	}
	size, err := parseQueryInt(c, "limit", "page_size")
	if err != nil {
		return dto.PageRequest{}, errInvalidPage
	}
	return dto.PageRequest{Page: page, PageSize: size}.Normalize(), nil
}

// formUint reads the first non-empty form value among keys as an identifier.
func formUint(c *fiber.Ctx, keys ...string) (uint, bool) {
	for _, key := range keys {
		value := strings.TrimSpace(c.FormValue(key))
		if value == "" {
			continue
		}
		parsed, err := strconv.ParseUint(value, 10, 64)
		if err != nil || parsed == 0 {
			return 0, false
		}
		return uint(parsed), true
	}
	return 0, false
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func validationFailure(c *fiber.Ctx, validationErrors validator.ValidationErrors) error {
	message := errInvalidPayload.Error()
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		if fieldErr.Tag() == "required" {
			message = "missing required fields"
		}
		details[toSnakeCase(fieldErr.Field())] = fieldErr.Tag()
	}
	return utils.Fail(c, fiber.StatusBadRequest, message, details)
}

// respondError translates service errors into the response envelope.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return validationFailure(c, validationErrors)
	}

	for _, mapping := range errorStatuses {
		if errors.Is(err, mapping.target) {
			return utils.SendError(c, mapping.status, mapping.target.Error())
		}
	}

	requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

func badRequest(c *fiber.Ctx, err error) error {
	return utils.SendError(c, fiber.StatusBadRequest, err.Error())
}

func toSnakeCase(name string) string {
	var builder strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(name[i-1] >= 'A' && name[i-1] <= 'Z') {
				builder.WriteByte('_')
			}
			builder.WriteRune(r + ('a' - 'A'))
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
