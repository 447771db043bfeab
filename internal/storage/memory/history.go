package memory

import (
	"context"
	"sync"
	"time"

	"github.com/strikepoint/server/internal/game/encounter"
)

type historyKey struct {
	userID     string
	locationID string
}

// HistoryStore is an in-memory encounter.HistoryStore.
type HistoryStore struct {
	mu      sync.Mutex
	records map[historyKey]*encounter.History
}

// NewHistoryStore creates an empty HistoryStore.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make(map[historyKey]*encounter.History)}
}

// Record folds one terminal outcome into the player's history via
// History.Apply and returns the new state.
func (h *HistoryStore) Record(ctx context.Context, userID, locationID string, outcome encounter.Outcome, at time.Time) (*encounter.History, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	k := historyKey{userID: userID, locationID: locationID}
	rec, ok := h.records[k]
	if !ok {
		rec = &encounter.History{UserID: userID, LocationID: locationID}
		h.records[k] = rec
	}
	rec.Apply(outcome, at)

	cp := *rec
	return &cp, nil
}

// Get returns the player's history at the location, or a zero-valued
// History when nothing has been recorded yet.
func (h *HistoryStore) Get(ctx context.Context, userID, locationID string) (*encounter.History, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rec, ok := h.records[historyKey{userID: userID, locationID: locationID}]; ok {
		cp := *rec
		return &cp, nil
	}
	return &encounter.History{UserID: userID, LocationID: locationID}, nil
}
