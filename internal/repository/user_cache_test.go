package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking-service/internal/domain"
)

// countingRepo tracks storage reads so tests can observe cache hits.
type countingRepo struct {
	users      map[string]*domain.User
	getByIDHit int
}

func (r *countingRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *countingRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.getByIDHit++
	user, ok := r.users[id]
	if !ok || !user.Active {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *countingRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (r *countingRepo) GetByResetDigest(_ context.Context, digest string, now time.Time) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (r *countingRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *countingRepo) UpdateCredentials(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *countingRepo) SetResetToken(_ context.Context, id, digest string, expiresAt time.Time) error {
	return nil
}

func (r *countingRepo) ClearResetToken(_ context.Context, id string) error {
	return nil
}

func (r *countingRepo) Deactivate(_ context.Context, id string) error {
	if user, ok := r.users[id]; ok {
		user.Active = false
	}
	return nil
}

func (r *countingRepo) Delete(_ context.Context, id string) error {
	delete(r.users, id)
	return nil
}

func (r *countingRepo) List(_ context.Context) ([]*domain.User, error) {
	return nil, nil
}

func newCacheFixture(t *testing.T) (*countingRepo, *CachedUserRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	inner := &countingRepo{users: make(map[string]*domain.User)}
	cached := NewCachedUserRepository(inner, client, time.Minute, zap.NewNop())
	return inner, cached
}

func TestCachedGetByIDServesSecondReadFromCache(t *testing.T) {
	inner, cached := newCacheFixture(t)
	inner.users["user-1"] = &domain.User{ID: "user-1", Email: "a@x.com", Active: true}

	ctx := context.Background()
	first, err := cached.GetByID(ctx, "user-1")
	require.NoError(t, err)
	second, err := cached.GetByID(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, 1, inner.getByIDHit)
}

func TestCachedGetByIDMissPassesThrough(t *testing.T) {
	_, cached := newCacheFixture(t)

	_, err := cached.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestCredentialWriteInvalidatesCache(t *testing.T) {
	inner, cached := newCacheFixture(t)
	inner.users["user-1"] = &domain.User{ID: "user-1", PasswordHash: "old-hash", Active: true}

	ctx := context.Background()
	_, err := cached.GetByID(ctx, "user-1")
	require.NoError(t, err)

	updated := &domain.User{ID: "user-1", PasswordHash: "new-hash", Active: true}
	require.NoError(t, cached.UpdateCredentials(ctx, updated))

	reread, err := cached.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", reread.PasswordHash, "stale hash must never be served after a credential write")
	assert.Equal(t, 2, inner.getByIDHit)
}

func TestDeactivateInvalidatesCache(t *testing.T) {
	inner, cached := newCacheFixture(t)
	inner.users["user-1"] = &domain.User{ID: "user-1", Active: true}

	ctx := context.Background()
	_, err := cached.GetByID(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, cached.Deactivate(ctx, "user-1"))

	_, err = cached.GetByID(ctx, "user-1")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
