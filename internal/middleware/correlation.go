package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// HeaderCorrelationID is echoed on every response.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted as a fallback when no correlation id is sent.
	HeaderRequestID = "X-Request-ID"

	localCorrelationID = "correlation_id"
)

type correlationKey struct{}

// CorrelationID tags each request with the caller's correlation id, or a fresh uuid.
// The id is stored in the locals and in the user context handed to services.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := firstHeader(c, HeaderCorrelationID, HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(localCorrelationID, id)
		c.Set(HeaderCorrelationID, id)
		c.SetUserContext(WithCorrelationID(c.UserContext(), id))

		return c.Next()
	}
}

// WithCorrelationID returns a copy of ctx carrying the correlation id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFromContext extracts the correlation id set by CorrelationID.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// GetCorrelationID returns the correlation id bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(localCorrelationID).(string); ok {
		return id
	}
	return CorrelationIDFromContext(c.UserContext())
}

func firstHeader(c *fiber.Ctx, names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(c.Get(name)); value != "" {
			return value
		}
	}
	return ""
}
