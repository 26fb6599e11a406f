// Package monitoring provides audit logging for chat turns.
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/cache"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/observability"
)

// Turn outcomes recorded on audit events.
const (
	OutcomeAnswered        = "answered"
	OutcomeSafetyViolation = "safety_violation"
	OutcomeLookupMiss      = "lookup_miss"
	OutcomeNoResults       = "no_results"
	OutcomeDegraded        = "degraded"
)

// TurnEvent is the audit record of one chat turn.
type TurnEvent struct {
	ID          uuid.UUID `json:"id"`
	TraceID     string    `json:"trace_id,omitempty"`
	Intent      string    `json:"intent"`
	Confidence  float64   `json:"confidence"`
	Outcome     string    `json:"outcome"`
	Flags       []string  `json:"flags,omitempty"`
	ResultCount int       `json:"result_count"`
	Query       string    `json:"query"`
	LatencyMs   int64     `json:"latency_ms"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// AuditLogger writes turn events to the structured log and, when a
// publisher is configured, fans them out on a pub/sub channel.
type AuditLogger struct {
	logger    *observability.Logger
	publisher cache.Publisher
	channel   string
}

// NewAuditLogger creates a new audit logger. publisher may be nil.
func NewAuditLogger(logger *observability.Logger, publisher cache.Publisher, channel string) *AuditLogger {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &AuditLogger{
		logger:    logger.WithComponent("audit"),
		publisher: publisher,
		channel:   channel,
	}
}

// LogTurn records a turn event.
func (a *AuditLogger) LogTurn(ctx context.Context, event TurnEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.TraceID == "" {
		event.TraceID = observability.TraceIDFromContext(ctx)
	}
	if event.Outcome == "" {
		event.Outcome = OutcomeAnswered
	}

	entry := a.logger.Info()
	if event.Outcome == OutcomeSafetyViolation || event.Outcome == OutcomeDegraded {
		entry = a.logger.Warn()
	}
	entry.
		Str("event_id", event.ID.String()).
		Str("trace_id", event.TraceID).
		Str("intent", event.Intent).
		Str("outcome", event.Outcome).
		Float64("confidence", event.Confidence).
		Strs("flags", event.Flags).
		Int("result_count", event.ResultCount).
		Int("latency_ms", int(event.LatencyMs)).
		Msg("Turn audit")

	if a.publisher == nil || a.channel == "" {
		return nil
	}
	if err := a.publisher.Publish(ctx, a.channel, event); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}
