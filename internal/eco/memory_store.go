package eco

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu    sync.RWMutex
	store map[string]SessionRecord // sessionID -> record
}

// NewMemoryStore returns an in-memory store intended for local development and tests.
func NewMemoryStore() ProgressStore {
	return &memoryStore{store: make(map[string]SessionRecord)}
}

func (s *memoryStore) Load(_ context.Context, sessionID string) (SessionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.store[sessionID]
	if !ok {
		return SessionRecord{}, false, nil
	}
	return SessionRecord{UserID: rec.UserID, Snapshot: cloneSnapshot(rec.Snapshot)}, true, nil
}

func (s *memoryStore) Save(_ context.Context, sessionID, userID string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store[sessionID] = SessionRecord{UserID: userID, Snapshot: cloneSnapshot(snap)}
	return nil
}

func (s *memoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.store, sessionID)
	return nil
}

func cloneSnapshot(snap Snapshot) Snapshot {
	badges := make([]string, len(snap.EarnedBadges))
	copy(badges, snap.EarnedBadges)
	return Snapshot{TotalPoints: snap.TotalPoints, EarnedBadges: badges}
}
