package store

import (
	"context"
	"fmt"
	"sync"
)

type MemoryStore struct {
	mu      sync.RWMutex
	matches map[string]MatchRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{matches: make(map[string]MatchRecord)}
}

func (s *MemoryStore) Save(_ context.Context, rec MatchRecord) error {
	if rec.MatchID == "" {
		return fmt.Errorf("save: empty match id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[rec.MatchID] = rec
	return nil
}

func (s *MemoryStore) Load(_ context.Context, matchID string) (MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.matches[matchID]
	if !ok {
		return MatchRecord{}, fmt.Errorf("load %s: %w", matchID, ErrMatchNotFound)
	}
	return rec, nil
}
