package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"supaco_backend/platform/token"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	pendingKeyPrefix = "assistant:pending:"
	historyKeyPrefix = "assistant:session:"
)

// RedisPendingStore keeps pending actions in Redis under the SHA-256 of their token.
type RedisPendingStore struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

var _ PendingStore = (*RedisPendingStore)(nil)

// NewRedisPendingStore creates a pending store whose tokens live for ttl.
func NewRedisPendingStore(rdb redis.Cmdable, ttl time.Duration) *RedisPendingStore {
	return &RedisPendingStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func pendingKey(rawToken string) string {
	return pendingKeyPrefix + token.HashSHA256(rawToken)
}

func (s *RedisPendingStore) Issue(ctx context.Context, action PendingAction) (string, time.Time, error) {
	raw, err := token.GenerateRandomToken(tokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate action token: %w", err)
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = s.now()
	}
	payload, err := json.Marshal(action)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encode pending action: %w", err)
	}
	if err := s.rdb.Set(ctx, pendingKey(raw), payload, s.ttl).Err(); err != nil {
		return "", time.Time{}, fmt.Errorf("store pending action: %w", err)
	}
	return raw, action.CreatedAt.Add(s.ttl), nil
}

func (s *RedisPendingStore) Redeem(ctx context.Context, userID uuid.UUID, rawToken string) (PendingAction, error) {
	key := pendingKey(rawToken)

	// Ownership is checked before consuming so another user cannot burn the token.
	action, err := s.peek(ctx, key)
	if err != nil {
		return PendingAction{}, err
	}
	if action.UserID != userID {
		return PendingAction{}, errTokenNotOwned
	}

	payload, err := s.rdb.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingAction{}, errTokenGone
	}
	if err != nil {
		return PendingAction{}, fmt.Errorf("redeem pending action: %w", err)
	}
	if err := json.Unmarshal(payload, &action); err != nil {
		return PendingAction{}, fmt.Errorf("decode pending action: %w", err)
	}
	return action, nil
}

func (s *RedisPendingStore) Discard(ctx context.Context, userID uuid.UUID, rawToken string) error {
	key := pendingKey(rawToken)
	action, err := s.peek(ctx, key)
	if err != nil {
		return err
	}
	if action.UserID != userID {
		return errTokenNotOwned
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("discard pending action: %w", err)
	}
	return nil
}

func (s *RedisPendingStore) peek(ctx context.Context, key string) (PendingAction, error) {
	payload, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return PendingAction{}, errTokenGone
	}
	if err != nil {
		return PendingAction{}, fmt.Errorf("load pending action: %w", err)
	}
	var action PendingAction
	if err := json.Unmarshal(payload, &action); err != nil {
		return PendingAction{}, fmt.Errorf("decode pending action: %w", err)
	}
	return action, nil
}

// RedisHistoryStore keeps conversation transcripts in Redis.
type RedisHistoryStore struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	maxTurns int
}

var _ HistoryStore = (*RedisHistoryStore)(nil)

// NewRedisHistoryStore creates a history store. Saved transcripts are cut to
// the last maxTurns turns and expire ttl after the last save.
func NewRedisHistoryStore(rdb redis.Cmdable, ttl time.Duration, maxTurns int) *RedisHistoryStore {
	return &RedisHistoryStore{rdb: rdb, ttl: ttl, maxTurns: maxTurns}
}

func historyKey(userID uuid.UUID, sessionID string) string {
	return historyKeyPrefix + userID.String() + ":" + sessionID
}

func (s *RedisHistoryStore) Load(ctx context.Context, userID uuid.UUID, sessionID string) ([]Turn, error) {
	payload, err := s.rdb.Get(ctx, historyKey(userID, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var turns []Turn
	if err := json.Unmarshal(payload, &turns); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return turns, nil
}

func (s *RedisHistoryStore) Save(ctx context.Context, userID uuid.UUID, sessionID string, turns []Turn) error {
	payload, err := json.Marshal(trimTurns(turns, s.maxTurns))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, historyKey(userID, sessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}
