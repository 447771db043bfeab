// Package loot generates victory drops from an aggregated loot pool.
package loot

import (
	"github.com/strikepoint/server/internal/game/pool"
	"github.com/strikepoint/server/internal/game/selection"
)

// Drop is a single generated drop. Duplicate drops across draws stay
// separate entries with Quantity 1; the inventory side stacks them.
type Drop struct {
	Type       pool.Category
	LootableID string
	// StyleID is set on material drops only: materials inherit the slain
	// enemy's style verbatim, the default style included.
	StyleID  string
	Quantity int
}

// Source is the subset of rng.Source used for loot draws.
type Source interface {
	Float64() float64
}

// Generate rolls n independent drops from the merged loot members, without
// removal. Material weights are scaled by the tier multiplier matching the
// enemy's tier before drawing; item weights are used as-is.
//
// Generate never fails: a nil result means there was nothing to draw (no
// members, n <= 0, or every scaled weight 0). Callers decide whether that is
// an anomaly worth logging.
//
// Precondition: members come from pool.Aggregate over validated pools; src
// must be non-nil when members exist and n > 0.
// Postcondition: returns at most n drops, each with Quantity 1.
func Generate(members []pool.Member, tiers TierWeights, enemyTier int, enemyStyle string, n int, src Source) []Drop {
	if len(members) == 0 || n <= 0 {
		return nil
	}

	weights := make([]float64, len(members))
	for i, m := range members {
		w := m.Weight
		if m.Category == pool.CategoryMaterial {
			w *= tiers.Multiplier(enemyTier)
		}
		weights[i] = w
	}

	drops := make([]Drop, 0, n)
	for draw := 0; draw < n; draw++ {
		i, err := selection.PickIndex(weights, src)
		if err != nil {
			// Every scaled weight is 0: nothing can drop.
			return nil
		}
		m := members[i]
		drop := Drop{
			Type:       m.Category,
			LootableID: m.CandidateID,
			Quantity:   1,
		}
		if m.Category == pool.CategoryMaterial {
			drop.StyleID = enemyStyle
		}
		drops = append(drops, drop)
	}
	return drops
}
