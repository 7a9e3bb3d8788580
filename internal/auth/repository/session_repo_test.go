package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arqmanager/portfolio-web/internal/auth/domain"
	projects "github.com/arqmanager/portfolio-web/internal/projects/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	rec := &domain.SessionRecord{
		Token:    "tok-1",
		User:     projects.User{ID: "u-1", Name: "Ana", Email: "ana@example.com"},
		Provider: domain.ProviderPassword,
	}
	require.NoError(t, repo.Create(ctx, rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, rec.User, got.User)
	assert.Equal(t, domain.ProviderPassword, got.Provider)

	assert.Equal(t, time.Hour, mr.TTL(sessionKeyPrefix+rec.ID))

	ids, err := repo.ListByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, ids)
}

func TestSessionRepository_NotFound(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewSessionRepository(client, 0)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = repo.Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, repo.Touch(context.Background(), "missing"), domain.ErrSessionNotFound)
}

func TestSessionRepository_Expiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	repo := NewSessionRepository(client, time.Minute)
	ctx := context.Background()

	rec := &domain.SessionRecord{Token: "tok", User: projects.User{ID: "u-1"}}
	require.NoError(t, repo.Create(ctx, rec))

	mr.FastForward(50 * time.Second)
	require.NoError(t, repo.Touch(ctx, rec.ID))
	mr.FastForward(50 * time.Second)

	_, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err, "touch slides the expiry")

	mr.FastForward(2 * time.Minute)
	_, err = repo.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepository_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	rec := &domain.SessionRecord{Token: "tok", User: projects.User{ID: "u-1"}}
	require.NoError(t, repo.Create(ctx, rec))

	require.NoError(t, repo.Delete(ctx, rec.ID))
	_, err := repo.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, err := repo.ListByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.NoError(t, repo.Delete(ctx, rec.ID), "deleting twice is fine")
}
