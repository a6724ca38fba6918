// Package nonce provides an optional server-side nonce store hardening the
// open question in §9: "nonce is never recorded on the server before the
// user signs it, so replay protection is weak". The default /authorize
// route in internal/api does not require a store-issued nonce — it accepts
// whatever the login UI supplies, matching the spec's documented behavior
// exactly. Operators that want replay protection construct a Store and
// check it themselves in front of the default handler.
//
// Backed by Redis when configured (reusing the teacher's
// github.com/redis/go-redis/v9 dependency), falling back to an in-memory
// map with the same TTL semantics when Redis is unreachable — mirroring
// the "cache is optional, continue without it" pattern in the teacher's
// cmd/api/main.go initCache.
package nonce

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long an issued nonce remains redeemable.
const DefaultTTL = 5 * time.Minute

// ErrUnknownOrStale is returned by Consume when the nonce was never issued,
// has already been consumed, or has expired.
var ErrUnknownOrStale = errors.New("nonce: unknown or stale")

// Store issues single-use nonces and rejects replay of unknown or stale
// ones.
type Store struct {
	redis *redis.Client
	ttl   time.Duration

	mu    sync.Mutex
	local map[string]time.Time
}

// NewStore builds a Store. If redisURL is empty or the server is
// unreachable, it falls back to an in-memory store silently, matching the
// teacher's "optional dependency" convention.
func NewStore(redisURL string) *Store {
	s := &Store{ttl: DefaultTTL, local: make(map[string]time.Time)}
	if redisURL == "" {
		return s
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return s
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return s
	}
	s.redis = client
	return s
}

// Issue generates and records a fresh single-use nonce.
func (s *Store) Issue(ctx context.Context) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	n := base64.RawURLEncoding.EncodeToString(buf)

	if s.redis != nil {
		if err := s.redis.Set(ctx, redisKey(n), "1", s.ttl).Err(); err == nil {
			return n, nil
		}
		// Redis became unavailable after construction; fall through to the
		// in-memory store rather than failing the request.
	}

	s.mu.Lock()
	s.local[n] = time.Now().Add(s.ttl)
	s.mu.Unlock()
	return n, nil
}

// Consume redeems a nonce exactly once. A second call with the same value,
// or a value that was never issued, returns ErrUnknownOrStale.
func (s *Store) Consume(ctx context.Context, n string) error {
	if s.redis != nil {
		deleted, err := s.redis.Del(ctx, redisKey(n)).Result()
		if err == nil {
			if deleted == 0 {
				return ErrUnknownOrStale
			}
			return nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.local[n]
	if !ok {
		return ErrUnknownOrStale
	}
	delete(s.local, n)
	if time.Now().After(expiry) {
		return ErrUnknownOrStale
	}
	return nil
}

func redisKey(n string) string {
	return "nonce:" + n
}
