package session

import (
	"context"
	"sync"
	"time"

	"github.com/decoynet/honeypot-platform/pkg/logging"
)

// Store owns every Conversation, one per session id. The map itself is guarded
// by a read-write mutex; each conversation carries its own lock so concurrent
// messages for different sessions proceed independently while messages for the
// same session serialize.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	logger        *logging.Logger
	maxAge        time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

type entry struct {
	mu   sync.Mutex
	conv *Conversation
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMaxAge overrides how long an idle non-engaging session is retained.
func WithMaxAge(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// WithSweepInterval overrides the cleanup cadence.
func WithSweepInterval(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty session store.
func NewStore(logger *logging.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Store{
		sessions:      make(map[string]*entry),
		logger:        logger,
		maxAge:        time.Hour,
		sweepInterval: 5 * time.Minute,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithSession runs fn with exclusive access to the session's conversation,
// creating the record on first sight. fn must not retain the pointer after it
// returns.
func (s *Store) WithSession(sessionID string, fn func(*Conversation) error) error {
	e := s.getOrCreate(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.conv)
}

func (s *Store) getOrCreate(sessionID string) *entry {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.sessions[sessionID]; ok {
		return e
	}
	e = &entry{conv: newConversation(sessionID, s.now().UTC())}
	s.sessions[sessionID] = e
	s.logger.Info("session created", "session_id", sessionID)
	return e
}

// Get returns a read-only snapshot of a session, if it exists.
func (s *Store) Get(sessionID string) (Snapshot, bool) {
	s.mu.RLock()
	e, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conv.snapshot(), true
}

// List returns snapshots of every live session, for monitoring.
func (s *Store) List() []Snapshot {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.conv.snapshot())
		e.mu.Unlock()
	}
	return out
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RunSweeper evicts idle sessions until ctx is cancelled.
func (s *Store) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := s.Sweep()
			if removed > 0 {
				s.logger.Info("swept idle sessions", "removed", removed)
			}
		}
	}
}

// Sweep removes sessions idle past maxAge. Active engagements are never
// evicted regardless of age.
func (s *Store) Sweep() int {
	cutoff := s.now().UTC().Add(-s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		e.mu.Lock()
		idle := e.conv.LastActivityAt.Before(cutoff)
		engaging := e.conv.State == StateEngaging
		e.mu.Unlock()
		if idle && !engaging {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
