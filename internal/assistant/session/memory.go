package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"supaco_backend/platform/token"

	"github.com/google/uuid"
)

type pendingEntry struct {
	action    PendingAction
	expiresAt time.Time
}

// MemoryPendingStore is a process-local PendingStore used when Redis is not configured.
type MemoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]pendingEntry
	ttl     time.Duration
	now     func() time.Time
}

var _ PendingStore = (*MemoryPendingStore)(nil)

// NewMemoryPendingStore creates an in-memory pending store.
func NewMemoryPendingStore(ttl time.Duration) *MemoryPendingStore {
	return &MemoryPendingStore{
		entries: make(map[string]pendingEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryPendingStore) Issue(_ context.Context, action PendingAction) (string, time.Time, error) {
	raw, err := token.GenerateRandomToken(tokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate action token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if action.CreatedAt.IsZero() {
		action.CreatedAt = now
	}
	s.sweepLocked(now)

	expiresAt := action.CreatedAt.Add(s.ttl)
	s.entries[token.HashSHA256(raw)] = pendingEntry{action: action, expiresAt: expiresAt}
	return raw, expiresAt, nil
}

func (s *MemoryPendingStore) Redeem(_ context.Context, userID uuid.UUID, rawToken string) (PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := token.HashSHA256(rawToken)
	entry, err := s.lookupLocked(key, userID)
	if err != nil {
		return PendingAction{}, err
	}
	delete(s.entries, key)
	return entry.action, nil
}

func (s *MemoryPendingStore) Discard(_ context.Context, userID uuid.UUID, rawToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := token.HashSHA256(rawToken)
	if _, err := s.lookupLocked(key, userID); err != nil {
		return err
	}
	delete(s.entries, key)
	return nil
}

func (s *MemoryPendingStore) lookupLocked(key string, userID uuid.UUID) (pendingEntry, error) {
	entry, ok := s.entries[key]
	if !ok {
		return pendingEntry{}, errTokenGone
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return pendingEntry{}, errTokenGone
	}
	if entry.action.UserID != userID {
		return pendingEntry{}, errTokenNotOwned
	}
	return entry, nil
}

func (s *MemoryPendingStore) sweepLocked(now time.Time) {
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}

type historyEntry struct {
	turns     []Turn
	expiresAt time.Time
}

// MemoryHistoryStore is a process-local HistoryStore used when Redis is not configured.
type MemoryHistoryStore struct {
	mu       sync.Mutex
	entries  map[string]historyEntry
	ttl      time.Duration
	maxTurns int
	now      func() time.Time
}

var _ HistoryStore = (*MemoryHistoryStore)(nil)

// NewMemoryHistoryStore creates an in-memory history store.
func NewMemoryHistoryStore(ttl time.Duration, maxTurns int) *MemoryHistoryStore {
	return &MemoryHistoryStore{
		entries:  make(map[string]historyEntry),
		ttl:      ttl,
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

func (s *MemoryHistoryStore) Load(_ context.Context, userID uuid.UUID, sessionID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := historyKey(userID, sessionID)
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	return append([]Turn(nil), entry.turns...), nil
}

func (s *MemoryHistoryStore) Save(_ context.Context, userID uuid.UUID, sessionID string, turns []Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := append([]Turn(nil), trimTurns(turns, s.maxTurns)...)
	s.entries[historyKey(userID, sessionID)] = historyEntry{turns: kept, expiresAt: s.now().Add(s.ttl)}
	return nil
}
