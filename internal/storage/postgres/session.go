package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strikepoint/server/internal/game/encounter"
)

const sessionColumns = `id::text, user_id, location_id, enemy_type_id, combat_level,
       player_hp, enemy_hp, turn_number, COALESCE(outcome, ''), stats_recorded,
       created_at, updated_at`

// SessionRepository implements encounter.SessionStore on the combat_sessions
// table. The one-active-session-per-user rule is the partial unique index
// combat_sessions_one_active_per_user; turn serialization is the
// turn_number guard in Update.
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a SessionRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert stores a new ongoing session. A unique violation on the
// active-per-user index means the user already holds one; concurrent
// creators race on that index and exactly one wins.
//
// Precondition: s.Outcome is empty (the session is ongoing).
// Postcondition: Returns nil, or encounter.ErrActiveSessionExists.
func (r *SessionRepository) Insert(ctx context.Context, s *encounter.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO combat_sessions
			(id, user_id, location_id, enemy_type_id, combat_level,
			 player_hp, enemy_hp, turn_number, outcome, stats_recorded,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, FALSE, $9, $10)`,
		s.ID, s.UserID, s.LocationID, s.EnemyTypeID, s.CombatLevel,
		s.PlayerHP, s.EnemyHP, s.TurnNumber, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return encounter.ErrActiveSessionExists
		}
		return fmt.Errorf("inserting combat session: %w", err)
	}
	return nil
}

// Get returns the session or encounter.ErrSessionNotFound. Expiry is the
// caller's concern; this is the raw row.
func (r *SessionRepository) Get(ctx context.Context, id string) (*encounter.Session, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM combat_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, encounter.ErrSessionNotFound
		}
		return nil, fmt.Errorf("querying combat session: %w", err)
	}
	return s, nil
}

// Update persists a resolved turn. The WHERE clause carries the optimistic
// guard: the row must still be ongoing at exactly expectedTurn, so duplicate
// and out-of-order turns touch zero rows.
//
// Postcondition: Returns nil and the row matches s; or the row is untouched
// and the error is encounter.ErrSessionNotFound for an unknown id,
// encounter.ErrTurnConflict otherwise.
func (r *SessionRepository) Update(ctx context.Context, s *encounter.Session, expectedTurn int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE combat_sessions
		SET player_hp = $2, enemy_hp = $3, turn_number = $4,
		    outcome = NULLIF($5, ''), updated_at = $6
		WHERE id = $1 AND outcome IS NULL AND turn_number = $7`,
		s.ID, s.PlayerHP, s.EnemyHP, s.TurnNumber,
		string(s.Outcome), s.UpdatedAt, expectedTurn,
	)
	if err != nil {
		return fmt.Errorf("updating combat session: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM combat_sessions WHERE id = $1)`, s.ID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("checking combat session: %w", err)
	}
	if !exists {
		return encounter.ErrSessionNotFound
	}
	return encounter.ErrTurnConflict
}

// Conclude sets a terminal outcome on an ongoing session. Exactly one of
// any number of concurrent concluders (Complete, a finishing attack, the
// sweep) sees true.
//
// Postcondition: Returns (true, nil) for the winner, (false, nil) when the
// session was already terminal, or encounter.ErrSessionNotFound.
func (r *SessionRepository) Conclude(ctx context.Context, id string, outcome encounter.Outcome, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE combat_sessions
		SET outcome = $2, updated_at = $3
		WHERE id = $1 AND outcome IS NULL`,
		id, string(outcome), at,
	)
	if err != nil {
		return false, fmt.Errorf("concluding combat session: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM combat_sessions WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking combat session: %w", err)
	}
	if !exists {
		return false, encounter.ErrSessionNotFound
	}
	return false, nil
}

// MarkStatsRecorded flips the stats_recorded flag on a terminal session.
// Rows-affected decides the winner: exactly one caller per session gets
// true, which is what keeps history application exactly-once.
func (r *SessionRepository) MarkStatsRecorded(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE combat_sessions
		SET stats_recorded = TRUE
		WHERE id = $1 AND outcome IS NOT NULL AND NOT stats_recorded`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("marking stats recorded: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var ongoing bool
	err = r.db.QueryRow(ctx,
		`SELECT outcome IS NULL FROM combat_sessions WHERE id = $1`, id,
	).Scan(&ongoing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, encounter.ErrSessionNotFound
		}
		return false, fmt.Errorf("checking combat session: %w", err)
	}
	if ongoing {
		return false, fmt.Errorf("session %q is still ongoing", id)
	}
	return false, nil
}

// AbandonExpiredForUser closes the user's idle ongoing sessions and returns
// them. updated_at is left at the last real activity so the history record
// carries the true end of the fight.
func (r *SessionRepository) AbandonExpiredForUser(ctx context.Context, userID string, cutoff time.Time) ([]*encounter.Session, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE combat_sessions
		SET outcome = 'abandoned'
		WHERE user_id = $1 AND outcome IS NULL AND updated_at <= $2
		RETURNING `+sessionColumns,
		userID, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("abandoning expired sessions for user: %w", err)
	}
	return collectSessions(rows)
}

// AbandonExpired closes up to limit idle ongoing sessions across all users,
// oldest first, and returns them. SKIP LOCKED lets concurrent sweepers and
// last-second attacks pass each other without blocking; an attack that
// refreshes updated_at first simply drops the row out of the subselect.
func (r *SessionRepository) AbandonExpired(ctx context.Context, cutoff time.Time, limit int) ([]*encounter.Session, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE combat_sessions
		SET outcome = 'abandoned'
		WHERE id IN (
			SELECT id FROM combat_sessions
			WHERE outcome IS NULL AND updated_at <= $1
			ORDER BY updated_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		) AND outcome IS NULL AND updated_at <= $1
		RETURNING `+sessionColumns,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("abandoning expired sessions: %w", err)
	}
	return collectSessions(rows)
}

// ListUnrecorded returns up to limit terminal sessions whose stats were
// never folded into history and whose last activity predates cutoff, oldest
// first. The sweep's recovery pass drains this set.
func (r *SessionRepository) ListUnrecorded(ctx context.Context, cutoff time.Time, limit int) ([]*encounter.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM combat_sessions
		WHERE outcome IS NOT NULL AND NOT stats_recorded AND updated_at <= $1
		ORDER BY updated_at ASC
		LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing unrecorded sessions: %w", err)
	}
	return collectSessions(rows)
}

func scanSession(row pgx.Row) (*encounter.Session, error) {
	var s encounter.Session
	var outcome string
	err := row.Scan(
		&s.ID, &s.UserID, &s.LocationID, &s.EnemyTypeID, &s.CombatLevel,
		&s.PlayerHP, &s.EnemyHP, &s.TurnNumber, &outcome, &s.StatsRecorded,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Outcome = encounter.Outcome(outcome)
	return &s, nil
}

func collectSessions(rows pgx.Rows) ([]*encounter.Session, error) {
	defer rows.Close()
	var out []*encounter.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning combat session row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
