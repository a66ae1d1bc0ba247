package eco

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ecotrail/ecotrail/shared/events"
)

// Registry owns one Engine per active session and manages its lifecycle.
type Registry struct {
	catalog   *Catalog
	store     ProgressStore
	publisher events.Publisher
	clock     Clock
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	// mu serializes load, submit/save/rollback and end for one session.
	mu     sync.Mutex
	loaded bool
	ended  bool
	userID string
	engine *Engine
	// lastSeen is guarded by Registry.mu.
	lastSeen time.Time
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithStore persists snapshots after every accepted submission.
func WithStore(store ProgressStore) RegistryOption {
	return func(r *Registry) { r.store = store }
}

// WithPublisher emits a BadgeEarned event for each newly earned badge.
func WithPublisher(p events.Publisher) RegistryOption {
	return func(r *Registry) { r.publisher = p }
}

// WithClock overrides time.Now for idle tracking and event timestamps.
func WithClock(c Clock) RegistryOption {
	return func(r *Registry) { r.clock = c }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry builds a registry scoring against catalog. Without options it
// keeps state in memory, publishes nothing and logs to slog.Default.
func NewRegistry(catalog *Catalog, opts ...RegistryOption) *Registry {
	r := &Registry{
		catalog:  catalog,
		clock:    NewSystemClock(),
		logger:   slog.Default(),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = NewMemoryStore()
	}
	return r
}

// Catalog exposes the configuration shared by every session.
func (r *Registry) Catalog() *Catalog {
	return r.catalog
}

// Start creates the session, restoring a persisted snapshot when one exists.
// Starting an active session is a no-op.
func (r *Registry) Start(ctx context.Context, key SessionKey) (Progress, error) {
	s, err := r.acquire(ctx, key)
	if err != nil {
		return Progress{}, err
	}
	defer s.mu.Unlock()
	return s.engine.Progress(), nil
}

// End discards the session and its persisted snapshot. Ending an unknown
// session succeeds. Submissions racing with End either land before it and are
// discarded, or run afterwards on a fresh session.
func (r *Registry) End(ctx context.Context, key SessionKey) error {
	s, err := r.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := r.store.Delete(ctx, key.SessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", key.SessionID, err)
	}
	s.ended = true
	r.forget(key.SessionID, s)

	r.logger.InfoContext(ctx, "eco session ended", slog.String("sessionId", key.SessionID), slog.String("userId", key.UserID))
	return nil
}

// Submit applies a batch of actions to the session, starting it if needed.
// The new state is persisted before returning; a failed save rolls it back.
func (r *Registry) Submit(ctx context.Context, key SessionKey, actionIDs []string) (SubmissionResult, error) {
	s, err := r.acquire(ctx, key)
	if err != nil {
		return SubmissionResult{}, err
	}
	defer s.mu.Unlock()

	before := s.engine.Snapshot()
	result, err := s.engine.SubmitActions(actionIDs)
	if err != nil {
		return SubmissionResult{}, err
	}

	if err := r.store.Save(ctx, key.SessionID, s.userID, s.engine.Snapshot()); err != nil {
		if rerr := s.engine.Restore(before); rerr != nil {
			r.logger.ErrorContext(ctx, "eco rollback failed", slog.String("sessionId", key.SessionID), slog.Any("error", rerr))
		}
		return SubmissionResult{}, fmt.Errorf("save session %s: %w", key.SessionID, err)
	}

	now := r.clock.Now()
	r.touch(s, now)

	if r.publisher != nil {
		for _, badge := range result.NewlyEarned {
			evt := events.BadgeEarned{
				UserID:      s.userID,
				SessionID:   key.SessionID,
				Badge:       badge,
				TotalPoints: result.TotalPoints,
				EarnedAt:    now.UTC(),
			}
			if err := r.publisher.Publish(ctx, events.TopicBadgeEvents, evt); err != nil {
				r.logger.WarnContext(ctx, "badge event publish failed",
					slog.String("sessionId", key.SessionID),
					slog.String("badge", badge),
					slog.Any("error", err),
				)
			}
		}
	}

	return result, nil
}

// Progress reads the session state, starting the session if needed.
func (r *Registry) Progress(ctx context.Context, key SessionKey) (Progress, error) {
	s, err := r.acquire(ctx, key)
	if err != nil {
		return Progress{}, err
	}
	defer s.mu.Unlock()
	r.touch(s, r.clock.Now())
	return s.engine.Progress(), nil
}

// Expire drops in-memory sessions idle for longer than idle. Persisted
// snapshots stay so a returning client resumes where it left off.
func (r *Registry) Expire(ctx context.Context, idle time.Duration) int {
	cutoff := r.clock.Now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if !s.lastSeen.Before(cutoff) {
			continue
		}
		// A locked session is in use; it is checked again on the next sweep.
		if !s.mu.TryLock() {
			continue
		}
		s.ended = true
		s.mu.Unlock()
		delete(r.sessions, id)
		removed++
	}
	if removed > 0 {
		r.logger.InfoContext(ctx, "expired idle eco sessions", slog.Int("count", removed))
	}
	return removed
}

// Active returns the number of sessions held in memory.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) touch(s *session, now time.Time) {
	r.mu.Lock()
	s.lastSeen = now
	r.mu.Unlock()
}

// acquire returns the caller's session locked and loaded, creating it when
// absent. The caller must unlock s.mu.
func (r *Registry) acquire(ctx context.Context, key SessionKey) (*session, error) {
	if key.SessionID == "" {
		return nil, ErrMissingSessionID
	}

	for {
		r.mu.Lock()
		s, ok := r.sessions[key.SessionID]
		if !ok {
			s = &session{lastSeen: r.clock.Now()}
			r.sessions[key.SessionID] = s
		}
		r.mu.Unlock()

		s.mu.Lock()
		if s.ended {
			// Ended or expired while we waited; its replacement starts from the store.
			s.mu.Unlock()
			continue
		}
		if !s.loaded {
			if err := r.load(ctx, key, s); err != nil {
				s.ended = true
				s.mu.Unlock()
				r.forget(key.SessionID, s)
				return nil, err
			}
		}
		if s.userID != key.UserID {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrSessionOwnership, key.SessionID)
		}
		return s, nil
	}
}

// load fills a fresh session from the store. The owner is the stored user,
// or the caller when nothing is stored yet.
func (r *Registry) load(ctx context.Context, key SessionKey, s *session) error {
	engine := NewEngine(r.catalog)
	rec, found, err := r.store.Load(ctx, key.SessionID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", key.SessionID, err)
	}

	owner := key.UserID
	if found {
		if err := engine.Restore(rec.Snapshot); err != nil {
			return fmt.Errorf("restore session %s: %w", key.SessionID, err)
		}
		owner = rec.UserID
		r.logger.InfoContext(ctx, "eco session resumed", slog.String("sessionId", key.SessionID), slog.Int("totalPoints", rec.Snapshot.TotalPoints))
	} else {
		r.logger.InfoContext(ctx, "eco session started", slog.String("sessionId", key.SessionID))
	}

	s.engine = engine
	s.userID = owner
	s.loaded = true
	return nil
}

// forget removes s from the index unless it was already replaced.
func (r *Registry) forget(sessionID string, s *session) {
	r.mu.Lock()
	if r.sessions[sessionID] == s {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()
}
