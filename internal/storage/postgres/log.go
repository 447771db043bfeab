package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strikepoint/server/internal/game/encounter"
)

// LogRepository implements encounter.LogStore on the combat_log table. The
// (combat_id, seq) primary key is the append-only guarantee: a replayed or
// raced append hits a unique violation instead of overwriting history.
type LogRepository struct {
	db *pgxpool.Pool
}

// NewLogRepository creates a LogRepository backed by the given pool.
func NewLogRepository(db *pgxpool.Pool) *LogRepository {
	return &LogRepository{db: db}
}

// NextSeq returns one past the highest stored sequence for the session,
// starting at 1 for an empty log.
func (r *LogRepository) NextSeq(ctx context.Context, combatID string) (int, error) {
	var next int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM combat_log WHERE combat_id = $1`,
		combatID,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("querying next combat log seq: %w", err)
	}
	return next, nil
}

// Append stores one event.
//
// Postcondition: Returns nil, or encounter.ErrDuplicateLogSeq when the
// (combat id, seq) pair is already taken.
func (r *LogRepository) Append(ctx context.Context, event *encounter.LogEvent) error {
	if event.Seq < 1 {
		return fmt.Errorf("combat log seq must be >= 1, got %d", event.Seq)
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO combat_log (combat_id, seq, ts, actor, event_type, payload, value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.CombatID, event.Seq, event.TS,
		string(event.Actor), string(event.Type), event.Payload, event.Value,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return encounter.ErrDuplicateLogSeq
		}
		return fmt.Errorf("appending combat log event: %w", err)
	}
	return nil
}

// List returns the session's events in sequence order.
func (r *LogRepository) List(ctx context.Context, combatID string) ([]*encounter.LogEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT combat_id::text, seq, ts, actor, event_type, payload, value
		FROM combat_log
		WHERE combat_id = $1
		ORDER BY seq ASC`,
		combatID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying combat log: %w", err)
	}
	defer rows.Close()

	var out []*encounter.LogEvent
	for rows.Next() {
		var ev encounter.LogEvent
		var actor, eventType string
		err := rows.Scan(&ev.CombatID, &ev.Seq, &ev.TS, &actor, &eventType, &ev.Payload, &ev.Value)
		if err != nil {
			return nil, fmt.Errorf("scanning combat log row: %w", err)
		}
		ev.Actor = encounter.Actor(actor)
		ev.Type = encounter.EventType(eventType)
		out = append(out, &ev)
	}
	return out, rows.Err()
}
