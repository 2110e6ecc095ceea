// Package formstate keeps serialized form drafts so half-filled client,
// contract and collection forms survive page reloads. Snapshots are pure
// data in and out with a TTL; nothing here touches the calculators.
package formstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recoleo/recoleo/internal/shared"
)

// Draft is one saved form snapshot.
type Draft struct {
	Form    string          `json:"form"`
	Payload json.RawMessage `json:"payload"`
	SavedAt time.Time       `json:"saved_at"`
}

// Store persists drafts per user and form.
type Store interface {
	Save(ctx context.Context, userID int64, form string, payload json.RawMessage) (*Draft, error)
	Load(ctx context.Context, userID int64, form string) (*Draft, error)
	Discard(ctx context.Context, userID int64, form string) error
}

// RedisStore is the Redis-backed Store.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore builds a RedisStore. The TTL bounds how long an abandoned
// draft survives.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{redis: client, ttl: ttl}
}

func draftKey(userID int64, form string) string {
	return fmt.Sprintf("formstate:%d:%s", userID, form)
}

// Save stores the snapshot, replacing any previous draft of the same form.
func (s *RedisStore) Save(ctx context.Context, userID int64, form string, payload json.RawMessage) (*Draft, error) {
	draft := Draft{
		Form:    form,
		Payload: payload,
		SavedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, draftKey(userID, form), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return &draft, nil
}

// Load returns the saved snapshot, or shared.ErrNotFound when it expired or
// never existed.
func (s *RedisStore) Load(ctx context.Context, userID int64, form string) (*Draft, error) {
	data, err := s.redis.Get(ctx, draftKey(userID, form)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}
	return &draft, nil
}

// Discard drops the snapshot. Discarding a missing draft is not an error.
func (s *RedisStore) Discard(ctx context.Context, userID int64, form string) error {
	return s.redis.Del(ctx, draftKey(userID, form)).Err()
}
