package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classroom-api/internal/observability"
)

const apiPrefix = "/api"

// Observability records Prometheus request metrics and writes one structured
// log line per request under /api.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if !strings.HasPrefix(c.Path(), apiPrefix) {
			return err
		}

		elapsed := time.Since(start)
		status := responseStatus(c, err)
		route := routeTemplate(c)
		method := c.Method()
		statusLabel := strconv.Itoa(status)

		observability.HTTPRequests().WithLabelValues(method, route, statusLabel).Inc()
		observability.HTTPLatency().WithLabelValues(method, route).Observe(elapsed.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.HTTPErrors().WithLabelValues(method, route, statusLabel).Inc()
		}

		event := logger.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = logger.Error()
		case status >= fiber.StatusBadRequest:
			event = logger.Warn()
		}

		event = event.
			Str("correlation_id", GetCorrelationID(c)).
			Str("method", method).
			Str("route", route).
			Int("status", status).
			Float64("latency_ms", float64(elapsed)/float64(time.Millisecond)).
			Int("bytes_out", len(c.Response().Body()))
		if userID, ok := UserID(c); ok {
			event = event.Uint("user_id", userID).Str("role", UserRole(c))
		}
		event.Msg(requestOutcome(status))

		return err
	}
}

// responseStatus accounts for errors returned to fiber that have not been written yet.
func responseStatus(c *fiber.Ctx, err error) int {
	if err != nil {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}
	return c.Response().StatusCode()
}

func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" {
		return route.Path
	}
	return c.Path()
}

func requestOutcome(status int) string {
	switch {
	case status >= fiber.StatusInternalServerError:
		return "request failed"
	case status >= fiber.StatusBadRequest:
		return "request completed with client error"
	default:
		return "request completed"
	}
}
