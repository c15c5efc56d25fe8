// Package events holds the domain events modules publish to each other.
// The bus itself lives in platform/events; its types are aliased here so a
// module needs only this import.
package events

import (
	"supaco_backend/platform/events"
	"supaco_backend/platform/logger"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates the process-local bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Auth Domain Events
// =============================================================================

// UserSignedUp is published when a new user successfully registers.
type UserSignedUp struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

func (e UserSignedUp) EventName() string { return "auth.user.signed_up" }

// =============================================================================
// Assistant Domain Events
// =============================================================================

// AssistantActionExecuted is published after the assistant ran a confirmed action.
// Args are not carried; only the argument names are.
type AssistantActionExecuted struct {
	BaseEvent
	UserID   uuid.UUID  `json:"userId"`
	Function string     `json:"function"`
	ArgKeys  []string   `json:"argKeys"`
	Success  bool       `json:"success"`
	EntityID *uuid.UUID `json:"entityId,omitempty"`
	Message  string     `json:"message"`
}

func (e AssistantActionExecuted) EventName() string { return "assistant.action.executed" }

// ProspectConverted is published when a prospect marked as won got a new
// project created and linked to it.
type ProspectConverted struct {
	BaseEvent
	UserID     uuid.UUID `json:"userId"`
	ProspectID uuid.UUID `json:"prospectId"`
	ProjectID  uuid.UUID `json:"projectId"`
}

func (e ProspectConverted) EventName() string { return "prospects.prospect.converted" }
