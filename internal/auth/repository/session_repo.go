package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/arqmanager/portfolio-web/internal/auth/domain"
)

const (
	sessionKeyPrefix   = "web:session:" // Session record: web:session:{sid}
	userSessionsPrefix = "web:user:"    // Set of session IDs per user: web:user:{user_id}:sessions
	defaultSessionTTL  = 7 * 24 * time.Hour
)

// SessionRepository keeps browser sessions in Redis
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository creates a new SessionRepository. A zero ttl uses seven days.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionRepository{client: client, ttl: ttl}
}

// Create stores a new session and assigns its ID
func (r *SessionRepository) Create(ctx context.Context, rec *domain.SessionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.sessionKey(rec.ID), data, r.ttl)
	if rec.User.ID != "" {
		userKey := r.userSessionsKey(rec.User.ID)
		pipe.SAdd(ctx, userKey, rec.ID)
		pipe.Expire(ctx, userKey, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get loads a session by ID
func (r *SessionRepository) Get(ctx context.Context, sid string) (*domain.SessionRecord, error) {
	if sid == "" {
		return nil, domain.ErrSessionNotFound
	}

	data, err := r.client.Get(ctx, r.sessionKey(sid)).Result()
	if err == redis.Nil {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &rec, nil
}

// Touch extends the session TTL (sliding expiration)
func (r *SessionRepository) Touch(ctx context.Context, sid string) error {
	ok, err := r.client.Expire(ctx, r.sessionKey(sid), r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, sid string) error {
	rec, err := r.Get(ctx, sid)
	if err == domain.ErrSessionNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.sessionKey(sid))
	if rec.User.ID != "" {
		pipe.SRem(ctx, r.userSessionsKey(rec.User.ID), sid)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListByUser returns the live session IDs of a user
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.userSessionsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user sessions: %w", err)
	}
	return ids, nil
}

func (r *SessionRepository) sessionKey(sid string) string {
	return sessionKeyPrefix + sid
}

func (r *SessionRepository) userSessionsKey(userID string) string {
	return userSessionsPrefix + userID + ":sessions"
}
