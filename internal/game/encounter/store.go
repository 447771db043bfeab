package encounter

import (
	"context"
	"errors"
	"time"

	"github.com/strikepoint/server/internal/game/enemy"
	"github.com/strikepoint/server/internal/game/loot"
	"github.com/strikepoint/server/internal/game/pool"
	"github.com/strikepoint/server/internal/game/weapon"
)

var (
	// ErrSessionNotFound is returned when a session does not exist or has
	// expired (expired reads are treated as absence).
	ErrSessionNotFound = errors.New("combat session not found")
	// ErrActiveSessionExists is returned when a user who already has an
	// ongoing session tries to start another.
	ErrActiveSessionExists = errors.New("user already has an active combat session")
	// ErrSessionNotActive is returned when an attack targets a session that
	// already reached a terminal outcome.
	ErrSessionNotActive = errors.New("combat session already concluded")
	// ErrTurnConflict is returned when a turn update loses the optimistic
	// race: the stored turn number no longer matches the expected one.
	ErrTurnConflict = errors.New("combat turn conflict")
	// ErrDuplicateLogSeq is returned when a combat log append reuses a
	// (combat id, seq) pair.
	ErrDuplicateLogSeq = errors.New("duplicate combat log sequence")
	// ErrContentNotFound is returned by content lookups for unknown ids.
	ErrContentNotFound = errors.New("content not found")
)

// SessionStore persists combat sessions. Implementations return copies; the
// caller owns what it gets back.
type SessionStore interface {
	// Insert stores a new ongoing session. Fails with
	// ErrActiveSessionExists when the user already has one.
	Insert(ctx context.Context, s *Session) error
	// Get returns the session or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)
	// Update persists a resolved turn. The write applies only while the
	// stored session is ongoing and its turn number equals expectedTurn;
	// otherwise it fails with ErrTurnConflict.
	Update(ctx context.Context, s *Session, expectedTurn int) error
	// Conclude sets a terminal outcome on an ongoing session, stamping
	// UpdatedAt with at. Returns false when the session was already
	// terminal (somebody else concluded it first).
	Conclude(ctx context.Context, id string, outcome Outcome, at time.Time) (bool, error)
	// MarkStatsRecorded flips the StatsRecorded flag on a terminal session.
	// Returns true for exactly one caller per session.
	MarkStatsRecorded(ctx context.Context, id string) (bool, error)
	// AbandonExpiredForUser marks the user's ongoing sessions with no
	// activity since cutoff as abandoned and returns them.
	AbandonExpiredForUser(ctx context.Context, userID string, cutoff time.Time) ([]*Session, error)
	// AbandonExpired does the same across all users, at most limit rows.
	AbandonExpired(ctx context.Context, cutoff time.Time, limit int) ([]*Session, error)
	// ListUnrecorded returns terminal sessions whose stats were never
	// recorded and whose last activity predates cutoff, at most limit rows.
	ListUnrecorded(ctx context.Context, cutoff time.Time, limit int) ([]*Session, error)
}

// LogStore persists the append-only combat log.
type LogStore interface {
	// NextSeq returns the next unused sequence number for the session,
	// starting at 1.
	NextSeq(ctx context.Context, combatID string) (int, error)
	// Append stores one event. Fails with ErrDuplicateLogSeq when the
	// (combat id, seq) pair is already taken.
	Append(ctx context.Context, event *LogEvent) error
	// List returns the session's events in sequence order.
	List(ctx context.Context, combatID string) ([]*LogEvent, error)
}

// HistoryStore persists per-player, per-location combat history.
type HistoryStore interface {
	// Record atomically folds one terminal outcome into the player's
	// history, exactly as History.Apply does, and returns the new state.
	Record(ctx context.Context, userID, locationID string, outcome Outcome, at time.Time) (*History, error)
	// Get returns the player's history at the location, or a zero-valued
	// History when none exists yet.
	Get(ctx context.Context, userID, locationID string) (*History, error)
}

// ContentSource provides the static game content combat resolution reads:
// locations, pools, enemy templates, weapons, tier weights, and player
// loadouts. Lookups fail with errors wrapping ErrContentNotFound for
// unknown ids.
type ContentSource interface {
	Location(ctx context.Context, id string) (*pool.Location, error)
	Pools(ctx context.Context, kind pool.Kind) ([]*pool.Pool, error)
	EnemyTemplate(ctx context.Context, id string) (*enemy.Template, error)
	Weapon(ctx context.Context, id string) (*weapon.Def, error)
	TierWeights(ctx context.Context) (loot.TierWeights, error)
	PlayerLoadout(ctx context.Context, userID string) (*PlayerLoadout, error)
}

// SessionCache mirrors hot sessions in a fast store. It is best-effort:
// implementations log failures and report misses instead of erroring, and
// return copies on Get.
type SessionCache interface {
	Get(ctx context.Context, id string) (*Session, bool)
	Put(ctx context.Context, s *Session)
	Drop(ctx context.Context, id string)
}
