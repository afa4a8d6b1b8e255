package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/tour-booking-service/internal/domain"
)

// CachedUserRepository decorates a UserRepository with a short-TTL Redis
// read-through cache on the by-ID lookup, which sits on the auth middleware
// hot path. Every credential or profile write invalidates the cached entry so
// a stale hash or watermark is never served to token verification.
type CachedUserRepository struct {
	inner  UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository wraps inner with a Redis cache.
func NewCachedUserRepository(inner UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedUserRepository {
	return &CachedUserRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func cacheKey(id string) string {
	return "user:" + id
}

func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if raw, err := r.client.Get(ctx, cacheKey(id)).Bytes(); err == nil {
		var user domain.User
		if err := json.Unmarshal(raw, &user); err == nil {
			return &user, nil
		}
		// Undecodable entry: drop it and fall through to storage.
		r.client.Del(ctx, cacheKey(id))
	}

	user, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(user); err == nil {
		if err := r.client.Set(ctx, cacheKey(id), raw, r.ttl).Err(); err != nil {
			r.logger.Debug("user cache set failed", zap.Error(err))
		}
	}
	return user, nil
}

func (r *CachedUserRepository) invalidate(ctx context.Context, id string) {
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		r.logger.Warn("user cache invalidation failed", zap.String("user_id", id), zap.Error(err))
	}
}

func (r *CachedUserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.inner.Create(ctx, user)
}

func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.inner.GetByEmail(ctx, email)
}

func (r *CachedUserRepository) GetByResetDigest(ctx context.Context, digest string, now time.Time) (*domain.User, error) {
	return r.inner.GetByResetDigest(ctx, digest, now)
}

func (r *CachedUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	if err := r.inner.UpdateProfile(ctx, user); err != nil {
		return err
	}
	r.invalidate(ctx, user.ID)
	return nil
}

func (r *CachedUserRepository) UpdateCredentials(ctx context.Context, user *domain.User) error {
	if err := r.inner.UpdateCredentials(ctx, user); err != nil {
		return err
	}
	r.invalidate(ctx, user.ID)
	return nil
}

func (r *CachedUserRepository) SetResetToken(ctx context.Context, id, digest string, expiresAt time.Time) error {
	if err := r.inner.SetResetToken(ctx, id, digest, expiresAt); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedUserRepository) ClearResetToken(ctx context.Context, id string) error {
	if err := r.inner.ClearResetToken(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedUserRepository) Deactivate(ctx context.Context, id string) error {
	if err := r.inner.Deactivate(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedUserRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	return r.inner.List(ctx)
}
