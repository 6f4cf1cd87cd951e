package store

import (
	"context"
	"sort"
	"sync"

	"github.com/brightdesk/chatrelay/internal/model/chat"
)

// MemoryStore implements Gateway with an in-memory map, suitable for tests
// and storage-less runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]SessionRecord
}

// NewMemoryStore returns an empty in-memory gateway.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]SessionRecord)}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[email]
	if !ok {
		return SessionRecord{}, ErrNotFound
	}
	return copyRecord(rec), nil
}

func (s *MemoryStore) UpsertByEmail(_ context.Context, rec SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Email] = copyRecord(rec)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SessionRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func copyRecord(rec SessionRecord) SessionRecord {
	cp := rec
	cp.History = make([]chat.Message, len(rec.History))
	copy(cp.History, rec.History)
	return cp
}
