package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/strikepoint/server/internal/game/encounter"
)

// SessionStore is an in-memory encounter.SessionStore.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*encounter.Session
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*encounter.Session)}
}

// Insert stores a new ongoing session, enforcing the one-active-session-per-
// user rule the way the Postgres partial unique index does.
func (s *SessionStore) Insert(ctx context.Context, sess *encounter.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return fmt.Errorf("session %q already exists", sess.ID)
	}
	for _, existing := range s.sessions {
		if existing.UserID == sess.UserID && existing.Active() {
			return encounter.ErrActiveSessionExists
		}
	}

	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

// Get returns a copy of the session or encounter.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, id string) (*encounter.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, encounter.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

// Update persists a resolved turn under the optimistic turn guard.
func (s *SessionStore) Update(ctx context.Context, sess *encounter.Session, expectedTurn int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[sess.ID]
	if !ok {
		return encounter.ErrSessionNotFound
	}
	if !current.Active() || current.TurnNumber != expectedTurn {
		return encounter.ErrTurnConflict
	}

	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

// Conclude sets a terminal outcome on an ongoing session.
func (s *SessionStore) Conclude(ctx context.Context, id string, outcome encounter.Outcome, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[id]
	if !ok {
		return false, encounter.ErrSessionNotFound
	}
	if !current.Active() {
		return false, nil
	}
	current.Outcome = outcome
	current.UpdatedAt = at
	return true, nil
}

// MarkStatsRecorded flips the StatsRecorded flag on a terminal session,
// returning true for exactly one caller.
func (s *SessionStore) MarkStatsRecorded(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[id]
	if !ok {
		return false, encounter.ErrSessionNotFound
	}
	if current.Active() {
		return false, fmt.Errorf("session %q is still ongoing", id)
	}
	if current.StatsRecorded {
		return false, nil
	}
	current.StatsRecorded = true
	return true, nil
}

// AbandonExpiredForUser marks the user's idle ongoing sessions abandoned and
// returns copies of them.
func (s *SessionStore) AbandonExpiredForUser(ctx context.Context, userID string, cutoff time.Time) ([]*encounter.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*encounter.Session
	for _, sess := range s.sessions {
		if sess.UserID != userID || !sess.Active() || sess.UpdatedAt.After(cutoff) {
			continue
		}
		sess.Outcome = encounter.OutcomeAbandoned
		cp := *sess
		out = append(out, &cp)
	}
	return out, nil
}

// AbandonExpired marks up to limit idle ongoing sessions abandoned across
// all users, oldest first, and returns copies of them.
func (s *SessionStore) AbandonExpired(ctx context.Context, cutoff time.Time, limit int) ([]*encounter.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []*encounter.Session
	for _, sess := range s.sessions {
		if sess.Active() && !sess.UpdatedAt.After(cutoff) {
			stale = append(stale, sess)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].UpdatedAt.Before(stale[j].UpdatedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}

	out := make([]*encounter.Session, 0, len(stale))
	for _, sess := range stale {
		sess.Outcome = encounter.OutcomeAbandoned
		cp := *sess
		out = append(out, &cp)
	}
	return out, nil
}

// ListUnrecorded returns copies of up to limit terminal sessions whose
// stats were never recorded and whose last activity predates cutoff,
// oldest first.
func (s *SessionStore) ListUnrecorded(ctx context.Context, cutoff time.Time, limit int) ([]*encounter.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []*encounter.Session
	for _, sess := range s.sessions {
		if !sess.Active() && !sess.StatsRecorded && !sess.UpdatedAt.After(cutoff) {
			stale = append(stale, sess)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].UpdatedAt.Before(stale[j].UpdatedAt) })
	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}

	out := make([]*encounter.Session, 0, len(stale))
	for _, sess := range stale {
		cp := *sess
		out = append(out, &cp)
	}
	return out, nil
}
