package core

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionKeyPrefix namespaces session bindings in Redis.
const SessionKeyPrefix = "session:"

// SessionKey returns the Redis key for a session token.
func SessionKey(token string) string {
	return SessionKeyPrefix + token
}

// RedisClientRaw is the subset of go-redis used for the session table and status probes.
type RedisClientRaw interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// sessionEntry is the JSON stored under a session key.
type sessionEntry struct {
	Principal string    `json:"principal"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisSessionStore keeps token -> principal bindings in Redis with a TTL.
// Redis serializes concurrent reads and writes, so no local locking is needed.
type RedisSessionStore struct {
	client RedisClientRaw
	ttl    time.Duration
}

func NewRedisSessionStore(client RedisClientRaw, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = sessionMaxAge * time.Second
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Put(ctx context.Context, sess Session) error {
	data, err := json.Marshal(sessionEntry{Principal: encodePrincipal(sess.Principal), CreatedAt: sess.CreatedAt})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, SessionKey(sess.Token), data, s.ttl).Err()
}

// Get returns the session bound to token, or nil, nil when none exists or it expired.
func (s *RedisSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	val, err := s.client.Get(ctx, SessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry sessionEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, err
	}
	p, err := decodePrincipal(entry.Principal)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Principal: p, CreatedAt: entry.CreatedAt}, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, SessionKey(token)).Err()
}

// Count returns how many live sessions exist.
func (s *RedisSessionStore) Count(ctx context.Context) (int, error) {
	iter := s.client.Scan(ctx, 0, SessionKeyPrefix+"*", 100).Iterator()
	n := 0
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	return n, nil
}
