package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/strikepoint/server/internal/game/encounter"
	"github.com/strikepoint/server/internal/game/enemy"
	"github.com/strikepoint/server/internal/game/loot"
	"github.com/strikepoint/server/internal/game/pool"
	"github.com/strikepoint/server/internal/game/weapon"
)

// ContentRepository implements encounter.ContentSource on the content tables
// and carries the upserts the content importer writes through. Reads return
// copies by construction; rows are scanned fresh on every call.
type ContentRepository struct {
	db *pgxpool.Pool
}

// NewContentRepository creates a ContentRepository backed by the given pool.
func NewContentRepository(db *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: db}
}

// Location returns the location or an error wrapping
// encounter.ErrContentNotFound.
func (r *ContentRepository) Location(ctx context.Context, id string) (*pool.Location, error) {
	var loc pool.Location
	err := r.db.QueryRow(ctx,
		`SELECT id, name, type, state, country FROM locations WHERE id = $1`, id,
	).Scan(&loc.ID, &loc.Name, &loc.Type, &loc.State, &loc.Country)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("location %q: %w", id, encounter.ErrContentNotFound)
		}
		return nil, fmt.Errorf("querying location: %w", err)
	}
	return &loc, nil
}

// Pools returns every pool of the given kind with its members, ordered by
// pool id and member position.
func (r *ContentRepository) Pools(ctx context.Context, kind pool.Kind) ([]*pool.Pool, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.name, p.kind, p.location_type, p.state, p.country,
		       p.min_level, p.max_level, m.candidate_id, m.category, m.weight
		FROM pools p
		JOIN pool_members m ON m.pool_id = p.id
		WHERE p.kind = $1
		ORDER BY p.id ASC, m.position ASC`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("querying pools: %w", err)
	}
	defer rows.Close()

	var out []*pool.Pool
	var current *pool.Pool
	for rows.Next() {
		var (
			p pool.Pool
			m pool.Member
			k string
			c string
		)
		err := rows.Scan(
			&p.ID, &p.Name, &k, &p.LocationType, &p.State, &p.Country,
			&p.MinLevel, &p.MaxLevel, &m.CandidateID, &c, &m.Weight,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning pool row: %w", err)
		}
		p.Kind = pool.Kind(k)
		m.Category = pool.Category(c)

		if current == nil || current.ID != p.ID {
			cp := p
			current = &cp
			out = append(out, current)
		}
		current.Members = append(current.Members, m)
	}
	return out, rows.Err()
}

// EnemyTemplate returns the template or an error wrapping
// encounter.ErrContentNotFound.
func (r *ContentRepository) EnemyTemplate(ctx context.Context, id string) (*enemy.Template, error) {
	var t enemy.Template
	err := r.db.QueryRow(ctx, `
		SELECT id, name, tier, style_id, base_hp, base_attack, base_defense
		FROM enemy_types WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.Tier, &t.StyleID, &t.BaseHP, &t.BaseAttack, &t.BaseDefense)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("enemy template %q: %w", id, encounter.ErrContentNotFound)
		}
		return nil, fmt.Errorf("querying enemy template: %w", err)
	}
	return &t, nil
}

// Weapon returns the weapon or an error wrapping encounter.ErrContentNotFound.
func (r *ContentRepository) Weapon(ctx context.Context, id string) (*weapon.Def, error) {
	var d weapon.Def
	err := r.db.QueryRow(ctx, `
		SELECT id, name, attack, band_injure, band_miss, band_graze, band_normal, band_crit
		FROM weapons WHERE id = $1`,
		id,
	).Scan(
		&d.ID, &d.Name, &d.Attack,
		&d.Bands.Injure, &d.Bands.Miss, &d.Bands.Graze, &d.Bands.Normal, &d.Bands.Crit,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("weapon %q: %w", id, encounter.ErrContentNotFound)
		}
		return nil, fmt.Errorf("querying weapon: %w", err)
	}
	return &d, nil
}

// TierWeights returns the tier scaling table in tier order. An empty table is
// valid and means no tier is scaled.
func (r *ContentRepository) TierWeights(ctx context.Context) (loot.TierWeights, error) {
	rows, err := r.db.Query(ctx,
		`SELECT tier, multiplier FROM tier_weights ORDER BY tier ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying tier weights: %w", err)
	}
	defer rows.Close()

	var tiers loot.TierWeights
	for rows.Next() {
		var tw loot.TierWeight
		if err := rows.Scan(&tw.Tier, &tw.Multiplier); err != nil {
			return nil, fmt.Errorf("scanning tier weight row: %w", err)
		}
		tiers = append(tiers, tw)
	}
	return tiers, rows.Err()
}

// PlayerLoadout returns the loadout or an error wrapping
// encounter.ErrContentNotFound.
func (r *ContentRepository) PlayerLoadout(ctx context.Context, userID string) (*encounter.PlayerLoadout, error) {
	var l encounter.PlayerLoadout
	err := r.db.QueryRow(ctx, `
		SELECT user_id, weapon_id, accuracy, attack, defense, max_hp, combat_level
		FROM player_loadouts WHERE user_id = $1`,
		userID,
	).Scan(&l.UserID, &l.WeaponID, &l.Accuracy, &l.Attack, &l.Defense, &l.MaxHP, &l.CombatLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("player loadout %q: %w", userID, encounter.ErrContentNotFound)
		}
		return nil, fmt.Errorf("querying player loadout: %w", err)
	}
	return &l, nil
}

// UpsertLocation inserts or replaces a location by id.
func (r *ContentRepository) UpsertLocation(ctx context.Context, loc *pool.Location) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO locations (id, name, type, state, country)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, type = EXCLUDED.type,
			state = EXCLUDED.state, country = EXCLUDED.country`,
		loc.ID, loc.Name, loc.Type, loc.State, loc.Country,
	)
	if err != nil {
		return fmt.Errorf("upserting location %q: %w", loc.ID, err)
	}
	return nil
}

// UpsertEnemyTemplate inserts or replaces an enemy template by id.
func (r *ContentRepository) UpsertEnemyTemplate(ctx context.Context, t *enemy.Template) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO enemy_types (id, name, tier, style_id, base_hp, base_attack, base_defense)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, tier = EXCLUDED.tier, style_id = EXCLUDED.style_id,
			base_hp = EXCLUDED.base_hp, base_attack = EXCLUDED.base_attack,
			base_defense = EXCLUDED.base_defense`,
		t.ID, t.Name, t.Tier, t.StyleID, t.BaseHP, t.BaseAttack, t.BaseDefense,
	)
	if err != nil {
		return fmt.Errorf("upserting enemy template %q: %w", t.ID, err)
	}
	return nil
}

// UpsertWeapon inserts or replaces a weapon by id.
func (r *ContentRepository) UpsertWeapon(ctx context.Context, d *weapon.Def) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO weapons (id, name, attack, band_injure, band_miss, band_graze, band_normal, band_crit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, attack = EXCLUDED.attack,
			band_injure = EXCLUDED.band_injure, band_miss = EXCLUDED.band_miss,
			band_graze = EXCLUDED.band_graze, band_normal = EXCLUDED.band_normal,
			band_crit = EXCLUDED.band_crit`,
		d.ID, d.Name, d.Attack,
		d.Bands.Injure, d.Bands.Miss, d.Bands.Graze, d.Bands.Normal, d.Bands.Crit,
	)
	if err != nil {
		return fmt.Errorf("upserting weapon %q: %w", d.ID, err)
	}
	return nil
}

// UpsertPool inserts or replaces a pool and its full member list in one
// transaction, so readers never see a half-replaced pool.
func (r *ContentRepository) UpsertPool(ctx context.Context, p *pool.Pool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning pool upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO pools (id, name, kind, location_type, state, country, min_level, max_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, kind = EXCLUDED.kind,
			location_type = EXCLUDED.location_type, state = EXCLUDED.state,
			country = EXCLUDED.country, min_level = EXCLUDED.min_level,
			max_level = EXCLUDED.max_level`,
		p.ID, p.Name, string(p.Kind), p.LocationType, p.State, p.Country,
		p.MinLevel, p.MaxLevel,
	)
	if err != nil {
		return fmt.Errorf("upserting pool %q: %w", p.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pool_members WHERE pool_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clearing pool %q members: %w", p.ID, err)
	}
	for i, m := range p.Members {
		_, err := tx.Exec(ctx, `
			INSERT INTO pool_members (pool_id, position, candidate_id, category, weight)
			VALUES ($1, $2, $3, $4, $5)`,
			p.ID, i, m.CandidateID, string(m.Category), m.Weight,
		)
		if err != nil {
			return fmt.Errorf("inserting pool %q member %d: %w", p.ID, i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing pool upsert: %w", err)
	}
	return nil
}

// ReplaceTierWeights swaps the whole tier scaling table in one transaction.
func (r *ContentRepository) ReplaceTierWeights(ctx context.Context, tiers loot.TierWeights) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tier weights replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tier_weights`); err != nil {
		return fmt.Errorf("clearing tier weights: %w", err)
	}
	for _, tw := range tiers {
		_, err := tx.Exec(ctx,
			`INSERT INTO tier_weights (tier, multiplier) VALUES ($1, $2)`,
			tw.Tier, tw.Multiplier,
		)
		if err != nil {
			return fmt.Errorf("inserting tier weight for tier %d: %w", tw.Tier, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing tier weights replace: %w", err)
	}
	return nil
}

// UpsertLoadout inserts or replaces a player loadout by user id.
func (r *ContentRepository) UpsertLoadout(ctx context.Context, l *encounter.PlayerLoadout) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO player_loadouts (user_id, weapon_id, accuracy, attack, defense, max_hp, combat_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			weapon_id = EXCLUDED.weapon_id, accuracy = EXCLUDED.accuracy,
			attack = EXCLUDED.attack, defense = EXCLUDED.defense,
			max_hp = EXCLUDED.max_hp, combat_level = EXCLUDED.combat_level`,
		l.UserID, l.WeaponID, l.Accuracy, l.Attack, l.Defense, l.MaxHP, l.CombatLevel,
	)
	if err != nil {
		return fmt.Errorf("upserting player loadout %q: %w", l.UserID, err)
	}
	return nil
}
