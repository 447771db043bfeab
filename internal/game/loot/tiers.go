package loot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TierWeight scales material drop weights for enemies of one tier. Tiers
// without an entry keep their weights unchanged.
type TierWeight struct {
	Tier       int     `yaml:"tier"`
	Multiplier float64 `yaml:"multiplier"`
}

// TierWeights is the full tier scaling table.
type TierWeights []TierWeight

// Multiplier returns the scaling factor for the given tier, or 1 when the
// tier has no entry. Absence means unscaled, not excluded.
func (tw TierWeights) Multiplier(tier int) float64 {
	for _, entry := range tw {
		if entry.Tier == tier {
			return entry.Multiplier
		}
	}
	return 1
}

// Validate checks that the table satisfies its invariants.
// Postcondition: returns nil iff every entry is valid and tiers are unique.
func (tw TierWeights) Validate() error {
	seen := make(map[int]bool, len(tw))
	for i, entry := range tw {
		if entry.Tier < 1 {
			return fmt.Errorf("tier weights: entry[%d] tier must be >= 1, got %d", i, entry.Tier)
		}
		if entry.Multiplier < 0 {
			return fmt.Errorf("tier weights: entry[%d] multiplier must be >= 0, got %f", i, entry.Multiplier)
		}
		if seen[entry.Tier] {
			return fmt.Errorf("tier weights: duplicate entry for tier %d", entry.Tier)
		}
		seen[entry.Tier] = true
	}
	return nil
}

// LoadTierWeights reads a single YAML file containing the tier scaling
// table and validates it.
// Precondition: path is a readable YAML file.
// Postcondition: returns a valid table or the first encountered error.
func LoadTierWeights(path string) (TierWeights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadTierWeights: cannot read file %q: %w", path, err)
	}
	var tiers TierWeights
	if err := yaml.Unmarshal(data, &tiers); err != nil {
		return nil, fmt.Errorf("LoadTierWeights: cannot parse file %q: %w", path, err)
	}
	if err := tiers.Validate(); err != nil {
		return nil, fmt.Errorf("LoadTierWeights: invalid table in %q: %w", path, err)
	}
	return tiers, nil
}
