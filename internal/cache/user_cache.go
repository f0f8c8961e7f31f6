package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"task-service/internal/model"
	"task-service/internal/repository"
)

const DefaultTTL = 5 * time.Minute

// Client is the subset of the redis client used by the cache.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return rdb, nil
}

type cachedUser struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserRepository serves FindByID from redis and reads through to the
// wrapped store on a miss. Password hashes are never cached.
type UserRepository struct {
	next repository.UserRepository
	rdb  Client
	ttl  time.Duration
}

func NewUserRepository(next repository.UserRepository, rdb Client, ttl time.Duration) *UserRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &UserRepository{next: next, rdb: rdb, ttl: ttl}
}

func userKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	return r.next.Create(ctx, user)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.next.FindByEmail(ctx, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	key := userKey(id)

	raw, err := r.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cached cachedUser
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &model.User{
				ID:        cached.ID,
				Name:      cached.Name,
				Email:     cached.Email,
				AvatarURL: cached.AvatarURL,
				CreatedAt: cached.CreatedAt,
				UpdatedAt: cached.UpdatedAt,
			}, nil
		}
		slog.WarnContext(ctx, "Discarding unreadable cached user", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		slog.WarnContext(ctx, "User cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	user, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.store(ctx, user)

	return user, nil
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*model.User, error) {
	user, err := r.next.UpdateAvatar(ctx, id, avatarURL)
	if err != nil {
		return nil, err
	}

	if err := r.rdb.Del(ctx, userKey(id)).Err(); err != nil {
		slog.WarnContext(ctx, "User cache invalidation failed", slog.String("user_id", id.String()), slog.String("error", err.Error()))
	}

	return user, nil
}

func (r *UserRepository) store(ctx context.Context, user *model.User) {
	payload, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err != nil {
		return
	}

	if err := r.rdb.Set(ctx, userKey(user.ID), string(payload), r.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "User cache write failed", slog.String("user_id", user.ID.String()), slog.String("error", err.Error()))
	}
}
