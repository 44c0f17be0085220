package repository

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps blobs in process memory. A positive quota bounds the total
// size of keys plus values in bytes.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]string
	quota int
	used  int
}

func NewMemoryStore(quotaBytes int) *MemoryStore {
	return &MemoryStore{data: make(map[string]string), quota: quotaBytes}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.used
	if old, ok := s.data[key]; ok {
		used -= len(key) + len(old)
	}
	used += len(key) + len(value)
	if s.quota > 0 && used > s.quota {
		return fmt.Errorf("%w: %d of %d bytes", ErrQuotaExceeded, used, s.quota)
	}
	s.data[key] = value
	s.used = used
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.data[key]; ok {
		s.used -= len(key) + len(old)
		delete(s.data, key)
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Used reports the bytes currently held.
func (s *MemoryStore) Used() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}
