package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event names published by the service.
const (
	SubmissionSubmitted = "submission.submitted"
	SubmissionGraded    = "submission.graded"
	StudentsImported    = "students.imported"
	AssignmentDeleted   = "assignment.deleted"
)

// Envelope is the JSON payload delivered to subscribers.
type Envelope struct {
	ID            string      `json:"id"`
	Event         string      `json:"event"`
	OccurredAt    time.Time   `json:"occurred_at"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Data          interface{} `json:"data"`
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, event string, data interface{}) error
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, string, interface{}) error { return nil }

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	PublishMsg(msg *nats.Msg) error
}

// NATSPublisher publishes envelopes to "<subject>.<event>".
type NATSPublisher struct {
	conn    Conn
	subject string
	logger  zerolog.Logger
	now     func() time.Time

	// correlate extracts the request correlation id from the publish context.
	correlate func(context.Context) string
}

// NewNATSPublisher builds a publisher bound to the given connection and subject prefix.
func NewNATSPublisher(conn Conn, subject string, logger zerolog.Logger) *NATSPublisher {
	subject = strings.Trim(strings.TrimSpace(subject), ".")
	if subject == "" {
		subject = "classroom.events"
	}
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "nats_publisher").Logger(),
		now:     time.Now,
	}
}

// WithCorrelation sets the function used to stamp envelopes with a correlation id.
func (p *NATSPublisher) WithCorrelation(fn func(context.Context) string) *NATSPublisher {
	p.correlate = fn
	return p
}

// Connect dials NATS. An empty URL returns a nil connection.
func Connect(url, name string) (*nats.Conn, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}

	conn, err := nats.Connect(url, nats.Name(name), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return conn, nil
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, event string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	envelope := Envelope{
		ID:         uuid.NewString(),
		Event:      event,
		OccurredAt: p.now().UTC(),
		Data:       data,
	}
	if p.correlate != nil {
		envelope.CorrelationID = p.correlate(ctx)
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := nats.NewMsg(p.Subject(event))
	msg.Data = payload
	msg.Header.Set("Content-Type", "application/json")
	if envelope.CorrelationID != "" {
		msg.Header.Set("X-Correlation-ID", envelope.CorrelationID)
	}

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event, err)
	}

	p.logger.Debug().Str("event", event).Msg("event published")
	return nil
}

// Subject returns the full subject an event is published on.
func (p *NATSPublisher) Subject(event string) string {
	return p.subject + "." + event
}
