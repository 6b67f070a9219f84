package memory

import (
	"context"
	"sync"
)

// KV is an in-memory key-value store; stage and marker backend for tests
// and single-process deployments.
type KV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewKV() *KV {
	return &KV{values: make(map[string][]byte)}
}

func (s *KV) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(value))
	copy(copied, value)
	s.values[key] = copied
	return nil
}

func (s *KV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, nil
}

func (s *KV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
