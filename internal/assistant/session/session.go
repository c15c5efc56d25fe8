// Package session keeps the assistant's short-lived server-side state:
// pending actions awaiting confirmation and optional conversation transcripts.
package session

import (
	"context"
	"time"

	"supaco_backend/platform/apperr"

	"github.com/google/uuid"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PendingAction is an action proposed by the model and waiting for the user.
type PendingAction struct {
	UserID      uuid.UUID      `json:"userId"`
	Function    string         `json:"function"`
	Args        map[string]any `json:"args"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// PendingStore issues single-use confirmation tokens for pending actions.
type PendingStore interface {
	// Issue stores action and returns the token that confirms it.
	Issue(ctx context.Context, action PendingAction) (string, time.Time, error)
	// Redeem consumes token. It fails with Forbidden when the token belongs
	// to another user and with Gone when it is unknown, expired or used.
	Redeem(ctx context.Context, userID uuid.UUID, token string) (PendingAction, error)
	// Discard drops token if it belongs to userID.
	Discard(ctx context.Context, userID uuid.UUID, token string) error
}

// HistoryStore persists conversation transcripts keyed by user and session.
type HistoryStore interface {
	Load(ctx context.Context, userID uuid.UUID, sessionID string) ([]Turn, error)
	Save(ctx context.Context, userID uuid.UUID, sessionID string, turns []Turn) error
}

const tokenBytes = 32

var (
	errTokenGone     = apperr.Gone("action confirmation expired or already used")
	errTokenNotOwned = apperr.Forbidden("action confirmation belongs to another user")
)

// trimTurns keeps the last max turns. A non-positive max keeps everything.
func trimTurns(turns []Turn, max int) []Turn {
	if max <= 0 || len(turns) <= max {
		return turns
	}
	return turns[len(turns)-max:]
}
