package encounter

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlayerLoadout is the combat-relevant slice of a player: the stats and
// equipped weapon the resolver reads every turn. The progression system
// that produces these values lives outside this server.
type PlayerLoadout struct {
	UserID   string `yaml:"user_id"`
	WeaponID string `yaml:"weapon_id"`
	// Accuracy in [0, 100] drives the hit-band adjustment.
	Accuracy    float64 `yaml:"accuracy"`
	Attack      int     `yaml:"attack"`
	Defense     int     `yaml:"defense"`
	MaxHP       int     `yaml:"max_hp"`
	CombatLevel int     `yaml:"combat_level"`
}

// Validate checks that the PlayerLoadout satisfies its invariants.
// Precondition: p is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (p *PlayerLoadout) Validate() error {
	var errs []error
	if p.UserID == "" {
		errs = append(errs, errors.New("UserID must not be empty"))
	}
	if p.WeaponID == "" {
		errs = append(errs, errors.New("WeaponID must not be empty"))
	}
	if p.Accuracy < 0 || p.Accuracy > 100 {
		errs = append(errs, fmt.Errorf("Accuracy must be in [0, 100], got %f", p.Accuracy))
	}
	if p.Attack < 1 {
		errs = append(errs, errors.New("Attack must be >= 1"))
	}
	if p.Defense < 0 {
		errs = append(errs, errors.New("Defense must not be negative"))
	}
	if p.MaxHP < 1 {
		errs = append(errs, errors.New("MaxHP must be >= 1"))
	}
	if p.CombatLevel < 1 {
		errs = append(errs, errors.New("CombatLevel must be >= 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("player loadout validation failed: %v", errs)
	}
	return nil
}

// LoadLoadouts reads a single YAML file containing a list of PlayerLoadouts
// (development seed data used by the simulator and the content importer),
// validates each, and returns the collected slice.
// Precondition: path is a readable YAML file.
// Postcondition: returns all valid PlayerLoadouts or the first encountered
// error.
func LoadLoadouts(path string) ([]*PlayerLoadout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadLoadouts: cannot read file %q: %w", path, err)
	}
	var loadouts []*PlayerLoadout
	if err := yaml.Unmarshal(data, &loadouts); err != nil {
		return nil, fmt.Errorf("LoadLoadouts: cannot parse file %q: %w", path, err)
	}
	for _, l := range loadouts {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("LoadLoadouts: invalid loadout in %q: %w", path, err)
		}
	}
	return loadouts, nil
}
