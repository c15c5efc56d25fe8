// Package activity records an audit trail of what users and the assistant did.
package activity

import (
	"context"
	"log/slog"

	"supaco_backend/internal/events"
	"supaco_backend/platform/logger"
)

// Module subscribes to domain events and writes one log line per event.
// Argument values never reach the log, only their names.
type Module struct {
	log *logger.Logger
}

// NewModule creates the activity module.
func NewModule(log *logger.Logger) *Module {
	return &Module{log: log}
}

// RegisterHandlers subscribes to the audited events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.UserSignedUp{}.EventName(), m)
	bus.Subscribe(events.AssistantActionExecuted{}.EventName(), m)
	bus.Subscribe(events.ProspectConverted{}.EventName(), m)
}

// Handle routes events to the matching audit record.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	log := m.log.WithContext(ctx)

	switch e := event.(type) {
	case events.UserSignedUp:
		log.Info("activity",
			slog.String("event", e.EventName()),
			slog.String("user_id", e.UserID.String()),
			slog.Time("occurred_at", e.OccurredAt()),
		)
	case events.AssistantActionExecuted:
		attrs := []any{
			slog.String("event", e.EventName()),
			slog.String("user_id", e.UserID.String()),
			slog.String("function", e.Function),
			slog.Any("arg_keys", e.ArgKeys),
			slog.Bool("success", e.Success),
			slog.Time("occurred_at", e.OccurredAt()),
		}
		if e.EntityID != nil {
			attrs = append(attrs, slog.String("entity_id", e.EntityID.String()))
		}
		if e.Success {
			log.Info("activity", attrs...)
		} else {
			log.Warn("activity", append(attrs, slog.String("message", e.Message))...)
		}
	case events.ProspectConverted:
		log.Info("activity",
			slog.String("event", e.EventName()),
			slog.String("user_id", e.UserID.String()),
			slog.String("prospect_id", e.ProspectID.String()),
			slog.String("project_id", e.ProjectID.String()),
			slog.Time("occurred_at", e.OccurredAt()),
		)
	}
	return nil
}

var _ events.Handler = (*Module)(nil)
