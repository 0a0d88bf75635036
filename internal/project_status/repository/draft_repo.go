package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/redis/go-redis/v9"
)

const (
	draftKeyPrefix  = "ps:draft:" // ps:draft:{user_key}
	defaultDraftTTL = 24 * time.Hour
)

// DraftRepository keeps one submission session per user in Redis.
type DraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftRepository creates a DraftRepository. A zero ttl means 24h.
func NewDraftRepository(client *redis.Client, ttl time.Duration) *DraftRepository {
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	return &DraftRepository{client: client, ttl: ttl}
}

func (r *DraftRepository) key(userKey string) string {
	return draftKeyPrefix + userKey
}

// Get returns the session for userKey or domain.ErrDraftNotFound.
func (r *DraftRepository) Get(ctx context.Context, userKey string) (*domain.Submission, error) {
	data, err := r.client.Get(ctx, r.key(userKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	var sub domain.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &sub, nil
}

// Save stores the session and refreshes its TTL.
func (r *DraftRepository) Save(ctx context.Context, sub *domain.Submission) error {
	if sub.UserKey == "" {
		return fmt.Errorf("user key required")
	}
	sub.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := r.client.Set(ctx, r.key(sub.UserKey), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (r *DraftRepository) Delete(ctx context.Context, userKey string) error {
	if err := r.client.Del(ctx, r.key(userKey)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
