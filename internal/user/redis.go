package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyUser  = "user:%s"
	redisKeyEmail = "email:%s"
)

// RedisClient is the minimal Redis interface needed (satisfied by
// *redis.Client and *redis.ClusterClient).
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps users as JSON under user:<id>, with email:<email> as a
// uniqueness index pointing at the id.
type RedisStore struct {
	client RedisClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a store.  prefix (e.g. "formaction") namespaces all
// keys.
func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (r *RedisStore) key(format string, a ...interface{}) string {
	return r.prefix + fmt.Sprintf(format, a...)
}

// Save implements Store.  The email index is claimed first with SETNX; if
// writing the record then fails, the claim is released.
func (r *RedisStore) Save(ctx context.Context, name, email string) (User, error) {
	u := User{ID: uuid.NewString(), Name: name, Email: email, CreatedAt: r.now().UTC()}
	data, err := json.Marshal(u)
	if err != nil {
		return User{}, fmt.Errorf("redis user encode: %w", err)
	}

	emailKey := r.key(redisKeyEmail, strings.ToLower(email))
	ok, err := r.client.SetNX(ctx, emailKey, u.ID, 0).Result()
	if err != nil {
		return User{}, fmt.Errorf("redis claim email: %w", err)
	}
	if !ok {
		return User{}, ErrDuplicateEmail
	}

	if err := r.client.Set(ctx, r.key(redisKeyUser, u.ID), data, 0).Err(); err != nil {
		r.client.Del(context.WithoutCancel(ctx), emailKey)
		return User{}, fmt.Errorf("redis store user: %w", err)
	}
	return u, nil
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, id string) (User, error) {
	data, err := r.client.Get(ctx, r.key(redisKeyUser, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, fmt.Errorf("redis user decode: %w", err)
	}
	return u, nil
}
