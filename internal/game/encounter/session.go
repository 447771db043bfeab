// Package encounter owns the combat session lifecycle: spawning an enemy
// from the location's pools, resolving timed-tap attack turns, completing or
// abandoning sessions, and recording per-player history exactly once.
package encounter

import "time"

// Outcome is the terminal state of a combat session. The empty string means
// the session is still ongoing.
type Outcome string

const (
	// OutcomeVictory means the player reduced the enemy to 0 HP.
	OutcomeVictory Outcome = "victory"
	// OutcomeDefeat means the enemy reduced the player to 0 HP.
	OutcomeDefeat Outcome = "defeat"
	// OutcomeEscape means the player ended the fight while both sides stood.
	OutcomeEscape Outcome = "escape"
	// OutcomeAbandoned means the session sat idle past its TTL and was
	// closed by the lazy expiry or the sweep.
	OutcomeAbandoned Outcome = "abandoned"
)

// Session is one combat encounter between a player and a spawned enemy.
// The JSON tags are the cache wire format.
type Session struct {
	// ID is the session's unique identifier.
	ID string `json:"id"`
	// UserID is the player fighting this encounter. At most one ongoing
	// session exists per user.
	UserID string `json:"user_id"`
	// LocationID is the real-world location the encounter happens at.
	LocationID string `json:"location_id"`
	// EnemyTypeID names the enemy template drawn at spawn.
	EnemyTypeID string `json:"enemy_type_id"`
	// CombatLevel is the level the enemy's base stats were scaled by.
	CombatLevel int `json:"combat_level"`
	// PlayerHP is the player's remaining hit points, floored at 0.
	PlayerHP int `json:"player_hp"`
	// EnemyHP is the enemy's remaining hit points, floored at 0.
	EnemyHP int `json:"enemy_hp"`
	// TurnNumber counts resolved attack turns; it doubles as the optimistic
	// lock for turn updates.
	TurnNumber int `json:"turn_number"`
	// Outcome is empty while the session is ongoing.
	Outcome Outcome `json:"outcome"`
	// StatsRecorded is flipped exactly once when the terminal outcome is
	// folded into the player's history.
	StatsRecorded bool `json:"stats_recorded"`
	// CreatedAt is when the session was spawned.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the last activity time; it drives the TTL clock.
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the session is still ongoing.
func (s *Session) Active() bool {
	return s.Outcome == ""
}

// Expired reports whether an ongoing session has sat idle for the TTL or
// longer as of now. Terminal sessions never expire; they are already closed.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	return s.Active() && !now.Before(s.UpdatedAt.Add(ttl))
}

// Actor identifies which side of the encounter an event belongs to.
type Actor string

const (
	// ActorPlayer marks events caused by the player.
	ActorPlayer Actor = "player"
	// ActorEnemy marks events caused by the enemy.
	ActorEnemy Actor = "enemy"
)

// EventType classifies combat log events.
type EventType string

const (
	// EventSpawn is the first event of every session: the enemy appearing.
	EventSpawn EventType = "spawn"
	// EventAttack is a resolved player tap, whatever zone it landed in.
	EventAttack EventType = "attack"
	// EventCounter is the enemy's return strike after a landed hit.
	EventCounter EventType = "counter"
	// EventOutcome closes the log with the session's terminal state.
	EventOutcome EventType = "outcome"
)

// LogEvent is one append-only combat log entry. Seq starts at 1 and is
// unique per session; the store rejects duplicate (CombatID, Seq) pairs.
type LogEvent struct {
	CombatID string
	Seq      int
	TS       time.Time
	Actor    Actor
	Type     EventType
	// Payload carries the enemy type for spawn events, the hit zone for
	// attack events, and the outcome for outcome events.
	Payload string
	// Value is the damage the event inflicted: hit points dealt for attack
	// and counter events (self-inflicted for injure taps), the spawned
	// enemy's hit points for spawn events, 0 for outcome events.
	Value int
}
