package cache

import (
	"context"
	"sync"
	"time"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

const statePrefix = "oauth:state:"

// StateStore keeps short-lived OAuth states in Redis. A state is single use;
// Consume deletes it on read so a replayed callback fails the check.
type StateStore struct{ client *redis.Client }

func NewStateStore(client *redis.Client) repository.IOAuthState {
	if client == nil {
		logger.GetLogger().Warn("Redis client is nil - using in-memory OAuth state store")
		return newMemoryStateStore()
	}
	return &StateStore{client: client}
}

func (s *StateStore) Save(ctx context.Context, state string, ttl time.Duration) error {
	return s.client.Set(ctx, statePrefix+state, "1", ttl).Err()
}

func (s *StateStore) Consume(ctx context.Context, state string) (bool, error) {
	res, err := s.client.GetDel(ctx, statePrefix+state).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res != "", nil
}

// memoryStateStore is the single-process fallback when Redis is unavailable.
type memoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func newMemoryStateStore() *memoryStateStore {
	return &memoryStateStore{states: map[string]time.Time{}}
}

func (m *memoryStateStore) Save(_ context.Context, state string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state] = time.Now().Add(ttl)
	return nil
}

func (m *memoryStateStore) Consume(_ context.Context, state string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deadline, ok := m.states[state]
	if !ok {
		return false, nil
	}
	delete(m.states, state)
	if time.Now().After(deadline) {
		return false, nil
	}
	return true, nil
}
