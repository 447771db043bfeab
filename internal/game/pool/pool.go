// Package pool provides definitions, loaders, and the matching/aggregation
// logic for location-scoped encounter pools. A pool lists weighted candidates
// (enemies or loot) and the geographic/level slice of the world it applies to.
package pool

import (
	"errors"
	"fmt"
)

// Kind distinguishes what a pool's members are candidates for.
type Kind string

const (
	// KindEnemy pools select the enemy spawned for a new encounter.
	KindEnemy Kind = "enemy"
	// KindLoot pools select the drops awarded after a victory.
	KindLoot Kind = "loot"
)

// Category classifies a loot pool member. Enemy pool members carry no
// category.
type Category string

const (
	// CategoryNone is the category of enemy pool members.
	CategoryNone Category = ""
	// CategoryMaterial marks crafting-material drops; their weights are
	// tier-scaled at generation time.
	CategoryMaterial Category = "material"
	// CategoryItem marks equipment drops; their weights are never scaled.
	CategoryItem Category = "item"
)

// Member is one weighted candidate inside a pool.
type Member struct {
	CandidateID string   `yaml:"candidate_id"`
	Category    Category `yaml:"category"`
	Weight      float64  `yaml:"weight"`
}

// Pool scopes a weighted candidate set to a slice of the world. An empty
// LocationType, State, or Country matches any location; MaxLevel 0 means no
// upper level bound.
type Pool struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Kind         Kind     `yaml:"kind"`
	LocationType string   `yaml:"location_type"`
	State        string   `yaml:"state"`
	Country      string   `yaml:"country"`
	MinLevel     int      `yaml:"min_level"`
	MaxLevel     int      `yaml:"max_level"` // 0 = unbounded
	Members      []Member `yaml:"members"`
}

// Location is a real-world place an encounter happens at. Pools match
// against its type and geography.
type Location struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	State   string `yaml:"state"`
	Country string `yaml:"country"`
}

// Matches reports whether the pool applies to an encounter at loc with the
// given combat level. Empty pool fields are wildcards; a pool with every
// field empty matches everywhere.
func (p *Pool) Matches(loc Location, level int) bool {
	if p.LocationType != "" && p.LocationType != loc.Type {
		return false
	}
	if p.State != "" && p.State != loc.State {
		return false
	}
	if p.Country != "" && p.Country != loc.Country {
		return false
	}
	if level < p.MinLevel {
		return false
	}
	if p.MaxLevel != 0 && level > p.MaxLevel {
		return false
	}
	return true
}

// Validate checks that the Pool satisfies its invariants.
// Precondition: p is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (p *Pool) Validate() error {
	var errs []error
	if p.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if p.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if p.Kind != KindEnemy && p.Kind != KindLoot {
		errs = append(errs, fmt.Errorf("Kind must be %q or %q, got %q", KindEnemy, KindLoot, p.Kind))
	}
	if p.MinLevel < 0 {
		errs = append(errs, errors.New("MinLevel must not be negative"))
	}
	if p.MaxLevel < 0 {
		errs = append(errs, errors.New("MaxLevel must not be negative"))
	}
	if p.MaxLevel != 0 && p.MaxLevel < p.MinLevel {
		errs = append(errs, errors.New("MaxLevel must not be below MinLevel"))
	}
	if len(p.Members) == 0 {
		errs = append(errs, errors.New("Members must not be empty"))
	}
	for i, m := range p.Members {
		if m.CandidateID == "" {
			errs = append(errs, fmt.Errorf("member %d: CandidateID must not be empty", i))
		}
		if m.Weight < 0 {
			errs = append(errs, fmt.Errorf("member %d: Weight must not be negative", i))
		}
		switch p.Kind {
		case KindEnemy:
			if m.Category != CategoryNone {
				errs = append(errs, fmt.Errorf("member %d: enemy pool members carry no category, got %q", i, m.Category))
			}
		case KindLoot:
			if m.Category != CategoryMaterial && m.Category != CategoryItem {
				errs = append(errs, fmt.Errorf("member %d: loot pool members must be %q or %q, got %q", i, CategoryMaterial, CategoryItem, m.Category))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("pool validation failed: %v", errs)
	}
	return nil
}

// Validate checks that the Location satisfies its invariants.
// Precondition: l is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (l *Location) Validate() error {
	var errs []error
	if l.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if l.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if l.Type == "" {
		errs = append(errs, errors.New("Type must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("location validation failed: %v", errs)
	}
	return nil
}
