package review

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrConfirmationNotFound covers dismissed, expired and already-consumed
// confirmation tokens.
var ErrConfirmationNotFound = errors.New("review: confirmation not found")

// Confirmation is one staged, dismissible approve/reject prompt. Nothing has
// happened upstream until it is confirmed.
type Confirmation struct {
	Token    string   `json:"token"`
	Screen   string   `json:"screen"`
	RecordID string   `json:"recordId"`
	Decision Decision `json:"decision"`
	Amount   *float64 `json:"amount,omitempty"`
	Currency string   `json:"currency,omitempty"`
	StagedAt int64    `json:"stagedAt"`
}

// ConfirmationStore holds staged confirmations in Redis with a short TTL.
type ConfirmationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewConfirmationStore constructs the store.
func NewConfirmationStore(client *redis.Client, ttl time.Duration) *ConfirmationStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ConfirmationStore{client: client, ttl: ttl}
}

// Stage persists a new confirmation and returns it with a fresh token.
func (s *ConfirmationStore) Stage(ctx context.Context, c Confirmation) (Confirmation, error) {
	c.Token = uuid.NewString()
	c.StagedAt = time.Now().Unix()
	data, err := json.Marshal(c)
	if err != nil {
		return Confirmation{}, err
	}
	if err := s.client.Set(ctx, s.key(c.Screen, c.Token), data, s.ttl).Err(); err != nil {
		return Confirmation{}, err
	}
	return c, nil
}

// Peek reads a staged confirmation without consuming it.
func (s *ConfirmationStore) Peek(ctx context.Context, screen, token string) (Confirmation, error) {
	data, err := s.client.Get(ctx, s.key(screen, token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Confirmation{}, ErrConfirmationNotFound
		}
		return Confirmation{}, err
	}
	var c Confirmation
	if err := json.Unmarshal(data, &c); err != nil {
		return Confirmation{}, err
	}
	return c, nil
}

// Take consumes a confirmation atomically: a token confirms at most once.
func (s *ConfirmationStore) Take(ctx context.Context, screen, token string) (Confirmation, error) {
	data, err := s.client.GetDel(ctx, s.key(screen, token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Confirmation{}, ErrConfirmationNotFound
		}
		return Confirmation{}, err
	}
	var c Confirmation
	if err := json.Unmarshal(data, &c); err != nil {
		return Confirmation{}, err
	}
	return c, nil
}

// Dismiss drops a staged confirmation without side effects.
func (s *ConfirmationStore) Dismiss(ctx context.Context, screen, token string) error {
	err := s.client.Del(ctx, s.key(screen, token)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (s *ConfirmationStore) key(screen, token string) string {
	return "opsdesk:confirm:" + screen + ":" + token
}
