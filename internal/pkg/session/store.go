package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/travelkita/flight-booking-service/internal/pkg/booking"
	"github.com/travelkita/flight-booking-service/internal/pkg/exception"
)

// ErrNotFound is returned when no snapshot exists for a session id.
var ErrNotFound = exception.ApplicationError{
	Message:    "booking session not found",
	StatusCode: http.StatusNotFound,
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store persists one snapshot per booking session as a single JSON blob,
// so a page reload resumes at the last confirmed step. Concurrent tabs
// on the same session are last-write-wins.
type Store struct {
	redis RedisClient
	ttl   time.Duration
}

func NewStore(redis RedisClient, ttl time.Duration) *Store {
	return &Store{
		redis: redis,
		ttl:   ttl,
	}
}

func (s *Store) Key(sessionID string) string {
	return fmt.Sprintf("booking:session:%s", sessionID)
}

func (s *Store) Save(ctx context.Context, sessionID string, snapshot booking.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}

	err = s.redis.Set(ctx, s.Key(sessionID), data, s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}

	return nil
}

func (s *Store) Load(ctx context.Context, sessionID string) (booking.Snapshot, error) {
	data, err := s.redis.Get(ctx, s.Key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return booking.Snapshot{}, ErrNotFound
		}

		return booking.Snapshot{}, fmt.Errorf("failed to load session snapshot: %w", err)
	}

	var snapshot booking.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return booking.Snapshot{}, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
	}

	return snapshot, nil
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, s.Key(sessionID)).Err()
}
