package loot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/strikepoint/server/internal/game/loot"
	"github.com/strikepoint/server/internal/game/pool"
	"github.com/strikepoint/server/internal/game/rng"
)

// seqSource replays a scripted sequence of draw values.
type seqSource struct {
	vals []float64
	next int
}

func (s *seqSource) Float64() float64 {
	v := s.vals[s.next%len(s.vals)]
	s.next++
	return v
}

func lootMembers() []pool.Member {
	return []pool.Member{
		{CandidateID: "bone", Category: pool.CategoryMaterial, Weight: 10},
		{CandidateID: "rusty-knife", Category: pool.CategoryItem, Weight: 10},
	}
}

func TestGenerate_TierScalesMaterialsOnly(t *testing.T) {
	tiers := loot.TierWeights{{Tier: 2, Multiplier: 3}}

	// Scaled weights: bone 30 (material, x3), knife 10 (item, unscaled);
	// total 40. 0.74 lands at 29.6 inside bone, 0.75 lands at 30 inside the
	// knife.
	src := &seqSource{vals: []float64{0.74, 0.75}}
	drops := loot.Generate(lootMembers(), tiers, 2, "ember", 2, src)

	require.Len(t, drops, 2)
	assert.Equal(t, loot.Drop{Type: pool.CategoryMaterial, LootableID: "bone", StyleID: "ember", Quantity: 1}, drops[0])
	assert.Equal(t, loot.Drop{Type: pool.CategoryItem, LootableID: "rusty-knife", Quantity: 1}, drops[1])
}

func TestGenerate_MissingTierLeavesWeightsUnscaled(t *testing.T) {
	tiers := loot.TierWeights{{Tier: 2, Multiplier: 3}}

	// Tier 5 has no entry, so both weights stay 10; total 20. 0.49 lands at
	// 9.8 inside bone, 0.5 lands at 10 inside the knife.
	src := &seqSource{vals: []float64{0.49, 0.5}}
	drops := loot.Generate(lootMembers(), tiers, 5, "normal", 2, src)

	require.Len(t, drops, 2)
	assert.Equal(t, "bone", drops[0].LootableID)
	assert.Equal(t, "rusty-knife", drops[1].LootableID)
}

func TestGenerate_MaterialsInheritStyleVerbatim(t *testing.T) {
	members := []pool.Member{
		{CandidateID: "bone", Category: pool.CategoryMaterial, Weight: 1},
	}

	drops := loot.Generate(members, nil, 1, "normal", 1, &seqSource{vals: []float64{0.5}})

	require.Len(t, drops, 1)
	assert.Equal(t, "normal", drops[0].StyleID, "the default style is inherited like any other")
}

func TestGenerate_DuplicateDrawsStaySeparateDrops(t *testing.T) {
	members := []pool.Member{
		{CandidateID: "bone", Category: pool.CategoryMaterial, Weight: 1},
	}

	drops := loot.Generate(members, nil, 1, "ember", 3, &seqSource{vals: []float64{0.1}})

	require.Len(t, drops, 3)
	for _, d := range drops {
		assert.Equal(t, "bone", d.LootableID)
		assert.Equal(t, 1, d.Quantity)
	}
}

func TestGenerate_NothingToDraw(t *testing.T) {
	src := &seqSource{vals: []float64{0.5}}

	assert.Nil(t, loot.Generate(nil, nil, 1, "normal", 3, src), "no members")
	assert.Nil(t, loot.Generate(lootMembers(), nil, 1, "normal", 0, src), "zero draws")
	assert.Nil(t, loot.Generate(lootMembers(), nil, 1, "normal", -2, src), "negative draws")
}

func TestGenerate_AllZeroScaledWeights(t *testing.T) {
	members := []pool.Member{
		{CandidateID: "bone", Category: pool.CategoryMaterial, Weight: 5},
		{CandidateID: "rusty-knife", Category: pool.CategoryItem, Weight: 0},
	}
	tiers := loot.TierWeights{{Tier: 1, Multiplier: 0}}

	drops := loot.Generate(members, tiers, 1, "normal", 3, &seqSource{vals: []float64{0.5}})

	assert.Nil(t, drops, "a fully zeroed pool drops nothing instead of failing")
}

func TestGenerate_ZeroWeightMemberNeverDrops(t *testing.T) {
	members := []pool.Member{
		{CandidateID: "bone", Category: pool.CategoryMaterial, Weight: 0},
		{CandidateID: "rusty-knife", Category: pool.CategoryItem, Weight: 10},
	}

	drops := loot.Generate(members, nil, 1, "normal", 500, rng.NewSeededSource(42))

	require.Len(t, drops, 500)
	for _, d := range drops {
		assert.Equal(t, "rusty-knife", d.LootableID)
	}
}

func TestGenerate_Property_DrawCountAndShape(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		seed := rapid.Int64().Draw(rt, "seed")

		drops := loot.Generate(lootMembers(), nil, 1, "ember", n, rng.NewSeededSource(seed))

		require.Len(rt, drops, n)
		for _, d := range drops {
			assert.Equal(rt, 1, d.Quantity)
			switch d.Type {
			case pool.CategoryMaterial:
				assert.Equal(rt, "ember", d.StyleID)
			case pool.CategoryItem:
				assert.Empty(rt, d.StyleID)
			default:
				rt.Fatalf("unexpected drop type %q", d.Type)
			}
		}
	})
}

func TestTierWeights_Multiplier(t *testing.T) {
	tiers := loot.TierWeights{
		{Tier: 1, Multiplier: 1},
		{Tier: 2, Multiplier: 1.5},
		{Tier: 3, Multiplier: 2.25},
	}

	assert.InDelta(t, 1.5, tiers.Multiplier(2), 1e-9)
	assert.InDelta(t, 1.0, tiers.Multiplier(99), 1e-9, "missing tiers are unscaled")
	assert.InDelta(t, 1.0, loot.TierWeights(nil).Multiplier(1), 1e-9)
}

func TestTierWeights_Validate(t *testing.T) {
	assert.NoError(t, loot.TierWeights{{Tier: 1, Multiplier: 0.5}, {Tier: 2, Multiplier: 2}}.Validate())
	assert.NoError(t, loot.TierWeights(nil).Validate())

	assert.Error(t, loot.TierWeights{{Tier: 0, Multiplier: 1}}.Validate(), "tier below one")
	assert.Error(t, loot.TierWeights{{Tier: 1, Multiplier: -0.1}}.Validate(), "negative multiplier")
	assert.Error(t, loot.TierWeights{{Tier: 1, Multiplier: 1}, {Tier: 1, Multiplier: 2}}.Validate(), "duplicate tier")
}
