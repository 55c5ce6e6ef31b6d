package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nexus_server/core/port/out"

	"github.com/redis/go-redis/v9"
)

// OAuthStateKey Redis key prefix for OAuth state
const OAuthStateKey = "oauth:state:"

// RedisOAuthStateStore keeps OAuth CSRF states in Redis.
type RedisOAuthStateStore struct {
	client *redis.Client
}

func NewRedisOAuthStateStore(client *redis.Client) *RedisOAuthStateStore {
	return &RedisOAuthStateStore{client: client}
}

func (s *RedisOAuthStateStore) Save(ctx context.Context, state string, ttl time.Duration) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if err := s.client.Set(ctx, OAuthStateKey+state, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store OAuth state: %w", err)
	}
	return nil
}

// Consume uses GETDEL so a state validates at most once.
func (s *RedisOAuthStateStore) Consume(ctx context.Context, state string) error {
	if state == "" {
		return out.ErrStateNotFound
	}
	err := s.client.GetDel(ctx, OAuthStateKey+state).Err()
	if errors.Is(err, redis.Nil) {
		return out.ErrStateNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to validate OAuth state: %w", err)
	}
	return nil
}

// MemoryOAuthStateStore is the single-process fallback when Redis is not configured.
type MemoryOAuthStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

func NewMemoryOAuthStateStore() *MemoryOAuthStateStore {
	return &MemoryOAuthStateStore{states: make(map[string]time.Time), now: time.Now}
}

func (s *MemoryOAuthStateStore) Save(_ context.Context, state string, ttl time.Duration) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.states {
		if now.After(exp) {
			delete(s.states, k)
		}
	}
	s.states[state] = now.Add(ttl)
	return nil
}

func (s *MemoryOAuthStateStore) Consume(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.states[state]
	if !ok {
		return out.ErrStateNotFound
	}
	delete(s.states, state)
	if s.now().After(exp) {
		return out.ErrStateNotFound
	}
	return nil
}
