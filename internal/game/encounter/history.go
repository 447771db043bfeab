package encounter

import "time"

// History is a player's lifetime combat record at one location.
type History struct {
	UserID        string
	LocationID    string
	TotalAttempts int
	Victories     int
	Defeats       int
	Escapes       int
	Abandons      int
	// CurrentStreak counts consecutive victories; any other outcome resets
	// it to 0.
	CurrentStreak int
	// LongestStreak is the high-water mark of CurrentStreak.
	LongestStreak int
	LastAttempt   time.Time
}

// Apply folds one terminal outcome into the history. Escapes and abandons
// break the victory streak like defeats do, but count in their own columns.
// The Postgres repository implements the same transition as a single upsert;
// the two must stay in agreement.
//
// Precondition: outcome is terminal (never the empty ongoing state).
func (h *History) Apply(outcome Outcome, at time.Time) {
	h.TotalAttempts++
	h.LastAttempt = at
	switch outcome {
	case OutcomeVictory:
		h.Victories++
		h.CurrentStreak++
		if h.CurrentStreak > h.LongestStreak {
			h.LongestStreak = h.CurrentStreak
		}
	case OutcomeDefeat:
		h.Defeats++
		h.CurrentStreak = 0
	case OutcomeEscape:
		h.Escapes++
		h.CurrentStreak = 0
	case OutcomeAbandoned:
		h.Abandons++
		h.CurrentStreak = 0
	}
}
