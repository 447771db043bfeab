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

// HistoryRepository implements encounter.HistoryStore on the
// player_combat_history table. Record is a single upsert so concurrent
// recorders for the same (user, location) serialize on the row; the CASE
// expressions must stay in agreement with History.Apply.
type HistoryRepository struct {
	db *pgxpool.Pool
}

// NewHistoryRepository creates a HistoryRepository backed by the given pool.
func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record atomically folds one terminal outcome into the player's history at
// the location and returns the new state. A victory extends the streak and
// pushes the high-water mark; any other outcome counts in its own column and
// resets the streak.
//
// Precondition: outcome is terminal (never the empty ongoing state).
func (r *HistoryRepository) Record(ctx context.Context, userID, locationID string, outcome encounter.Outcome, at time.Time) (*encounter.History, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO player_combat_history
			(user_id, location_id, total_attempts, victories, defeats, escapes, abandons,
			 current_streak, longest_streak, last_attempt)
		VALUES ($1, $2, 1,
			CASE WHEN $3 = 'victory' THEN 1 ELSE 0 END,
			CASE WHEN $3 = 'defeat' THEN 1 ELSE 0 END,
			CASE WHEN $3 = 'escape' THEN 1 ELSE 0 END,
			CASE WHEN $3 = 'abandoned' THEN 1 ELSE 0 END,
			CASE WHEN $3 = 'victory' THEN 1 ELSE 0 END,
			CASE WHEN $3 = 'victory' THEN 1 ELSE 0 END,
			$4)
		ON CONFLICT (user_id, location_id) DO UPDATE SET
			total_attempts = player_combat_history.total_attempts + 1,
			victories      = player_combat_history.victories + CASE WHEN $3 = 'victory' THEN 1 ELSE 0 END,
			defeats        = player_combat_history.defeats + CASE WHEN $3 = 'defeat' THEN 1 ELSE 0 END,
			escapes        = player_combat_history.escapes + CASE WHEN $3 = 'escape' THEN 1 ELSE 0 END,
			abandons       = player_combat_history.abandons + CASE WHEN $3 = 'abandoned' THEN 1 ELSE 0 END,
			current_streak = CASE WHEN $3 = 'victory' THEN player_combat_history.current_streak + 1 ELSE 0 END,
			longest_streak = GREATEST(
				player_combat_history.longest_streak,
				CASE WHEN $3 = 'victory' THEN player_combat_history.current_streak + 1 ELSE 0 END),
			last_attempt   = $4
		RETURNING user_id, location_id, total_attempts, victories, defeats, escapes,
		          abandons, current_streak, longest_streak, last_attempt`,
		userID, locationID, string(outcome), at,
	)
	h, err := scanHistory(row)
	if err != nil {
		return nil, fmt.Errorf("recording combat history: %w", err)
	}
	return h, nil
}

// Get returns the player's history at the location, or a zero-valued History
// when the player has never fought there.
func (r *HistoryRepository) Get(ctx context.Context, userID, locationID string) (*encounter.History, error) {
	row := r.db.QueryRow(ctx, `
		SELECT user_id, location_id, total_attempts, victories, defeats, escapes,
		       abandons, current_streak, longest_streak, last_attempt
		FROM player_combat_history
		WHERE user_id = $1 AND location_id = $2`,
		userID, locationID,
	)
	h, err := scanHistory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &encounter.History{UserID: userID, LocationID: locationID}, nil
		}
		return nil, fmt.Errorf("querying combat history: %w", err)
	}
	return h, nil
}

func scanHistory(row pgx.Row) (*encounter.History, error) {
	var h encounter.History
	err := row.Scan(
		&h.UserID, &h.LocationID, &h.TotalAttempts, &h.Victories, &h.Defeats,
		&h.Escapes, &h.Abandons, &h.CurrentStreak, &h.LongestStreak, &h.LastAttempt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
