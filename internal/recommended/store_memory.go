package recommended

import (
	"context"
	"sync"
)

// MemoryStore keeps the record in process. Dismissals are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	record Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return nil, false, nil
	}
	return s.record.Clone(), true, nil
}

func (s *MemoryStore) Set(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec == nil {
		rec = Record{}
	}
	s.record = rec.Clone()
	return nil
}

func (s *MemoryStore) SetState(ctx context.Context, id string, state VisibilityState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		s.record = Record{}
	}
	s.record[id] = state
	return nil
}

func (s *MemoryStore) SeedIfAbsent(ctx context.Context, rec Record) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record != nil {
		return false, nil
	}
	if rec == nil {
		rec = Record{}
	}
	s.record = rec.Clone()
	return true, nil
}
