package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/strikepoint/server/internal/game/encounter"
	"github.com/strikepoint/server/internal/game/enemy"
	"github.com/strikepoint/server/internal/game/loot"
	"github.com/strikepoint/server/internal/game/pool"
	"github.com/strikepoint/server/internal/game/weapon"
)

// ContentSource is an in-memory encounter.ContentSource, populated through
// the Add/Set methods. The simulator fills one from the content YAML
// directories.
type ContentSource struct {
	mu        sync.RWMutex
	locations map[string]*pool.Location
	pools     []*pool.Pool
	enemies   map[string]*enemy.Template
	weapons   map[string]*weapon.Def
	tiers     loot.TierWeights
	loadouts  map[string]*encounter.PlayerLoadout
}

// NewContentSource creates an empty ContentSource.
func NewContentSource() *ContentSource {
	return &ContentSource{
		locations: make(map[string]*pool.Location),
		enemies:   make(map[string]*enemy.Template),
		weapons:   make(map[string]*weapon.Def),
		loadouts:  make(map[string]*encounter.PlayerLoadout),
	}
}

// AddLocation registers a location.
func (c *ContentSource) AddLocation(loc *pool.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *loc
	c.locations[loc.ID] = &cp
}

// AddPool registers a pool.
func (c *ContentSource) AddPool(p *pool.Pool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pools = append(c.pools, copyPool(p))
}

// AddEnemyTemplate registers an enemy template.
func (c *ContentSource) AddEnemyTemplate(t *enemy.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *t
	c.enemies[t.ID] = &cp
}

// AddWeapon registers a weapon definition.
func (c *ContentSource) AddWeapon(d *weapon.Def) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *d
	c.weapons[d.ID] = &cp
}

// SetTierWeights replaces the tier scaling table.
func (c *ContentSource) SetTierWeights(tiers loot.TierWeights) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tiers = append(loot.TierWeights(nil), tiers...)
}

// AddLoadout registers a player loadout.
func (c *ContentSource) AddLoadout(l *encounter.PlayerLoadout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *l
	c.loadouts[l.UserID] = &cp
}

// Location returns the location or an error wrapping
// encounter.ErrContentNotFound.
func (c *ContentSource) Location(ctx context.Context, id string) (*pool.Location, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loc, ok := c.locations[id]
	if !ok {
		return nil, fmt.Errorf("location %q: %w", id, encounter.ErrContentNotFound)
	}
	cp := *loc
	return &cp, nil
}

// Pools returns copies of every pool of the given kind, in insertion order.
func (c *ContentSource) Pools(ctx context.Context, kind pool.Kind) ([]*pool.Pool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*pool.Pool
	for _, p := range c.pools {
		if p.Kind == kind {
			out = append(out, copyPool(p))
		}
	}
	return out, nil
}

// EnemyTemplate returns the template or an error wrapping
// encounter.ErrContentNotFound.
func (c *ContentSource) EnemyTemplate(ctx context.Context, id string) (*enemy.Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.enemies[id]
	if !ok {
		return nil, fmt.Errorf("enemy template %q: %w", id, encounter.ErrContentNotFound)
	}
	cp := *t
	return &cp, nil
}

// Weapon returns the weapon or an error wrapping
// encounter.ErrContentNotFound.
func (c *ContentSource) Weapon(ctx context.Context, id string) (*weapon.Def, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.weapons[id]
	if !ok {
		return nil, fmt.Errorf("weapon %q: %w", id, encounter.ErrContentNotFound)
	}
	cp := *d
	return &cp, nil
}

// TierWeights returns a copy of the tier scaling table.
func (c *ContentSource) TierWeights(ctx context.Context) (loot.TierWeights, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append(loot.TierWeights(nil), c.tiers...), nil
}

// PlayerLoadout returns the loadout or an error wrapping
// encounter.ErrContentNotFound.
func (c *ContentSource) PlayerLoadout(ctx context.Context, userID string) (*encounter.PlayerLoadout, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.loadouts[userID]
	if !ok {
		return nil, fmt.Errorf("player loadout %q: %w", userID, encounter.ErrContentNotFound)
	}
	cp := *l
	return &cp, nil
}

func copyPool(p *pool.Pool) *pool.Pool {
	cp := *p
	cp.Members = append([]pool.Member(nil), p.Members...)
	return &cp
}
