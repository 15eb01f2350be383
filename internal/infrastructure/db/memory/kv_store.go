// Package memory provides a process-local KV store used by tests and demos.
package memory

import (
	"context"
	"sync"

	"github.com/99minutos/rbac-accounts/internal/core/ports"
)

type KVStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string][]byte)}
}

func (s *KVStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.data[key]), nil
}

func (s *KVStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = clone(value)
	return nil
}

func (s *KVStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Update holds the store lock for the whole read-modify-write.
func (s *KVStore) Update(_ context.Context, key string, fn ports.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(clone(s.data[key]))
	if err != nil {
		return err
	}
	if next != nil {
		s.data[key] = clone(next)
	}
	return nil
}

func (s *KVStore) Ping(context.Context) error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
