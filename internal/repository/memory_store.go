package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps documents as encoded JSON so callers never share
// slices with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[Collection][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[Collection][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, c Collection, dst any) (bool, error) {
	s.mu.RLock()
	payload, ok := s.docs[c]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", c, err)
	}
	return true, nil
}

func (s *MemoryStore) Save(_ context.Context, c Collection, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	s.mu.Lock()
	s.docs[c] = payload
	s.mu.Unlock()
	return nil
}
