package selection_test

import (
	"testing"

	"github.com/strikepoint/server/internal/game/rng"
	"github.com/strikepoint/server/internal/game/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fixedSource always returns val for any Float64 call.
type fixedSource struct{ val float64 }

func (f *fixedSource) Float64() float64 { return f.val }

func TestPick_EmptyPool(t *testing.T) {
	_, err := selection.Pick(nil, &fixedSource{val: 0.5})
	assert.ErrorIs(t, err, selection.ErrEmptyPool)
}

func TestPick_ZeroTotalWeight(t *testing.T) {
	candidates := []selection.Candidate{
		{ID: "a", Weight: 0},
		{ID: "b", Weight: 0},
	}
	_, err := selection.Pick(candidates, &fixedSource{val: 0.5})
	assert.ErrorIs(t, err, selection.ErrZeroTotalWeight)
}

func TestPick_NegativeWeight(t *testing.T) {
	candidates := []selection.Candidate{
		{ID: "a", Weight: 1},
		{ID: "b", Weight: -0.5},
	}
	_, err := selection.Pick(candidates, &fixedSource{val: 0.5})
	assert.ErrorIs(t, err, selection.ErrNegativeWeight)
}

func TestPick_WalksCumulativeWeights(t *testing.T) {
	candidates := []selection.Candidate{
		{ID: "common", Weight: 10},
		{ID: "uncommon", Weight: 30},
		{ID: "rare", Weight: 60},
	}
	tests := []struct {
		roll float64
		want string
	}{
		{0.0, "common"},   // point 0 of 100
		{0.05, "common"},  // point 5
		{0.0999, "common"},
		{0.1, "uncommon"}, // point 10: first band ends, second starts
		{0.2, "uncommon"},
		{0.3999, "uncommon"},
		{0.4, "rare"}, // point 40
		{0.95, "rare"},
	}
	for _, tc := range tests {
		got, err := selection.Pick(candidates, &fixedSource{val: tc.roll})
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.ID, "roll=%g", tc.roll)
	}
}

func TestPick_SingleCandidate(t *testing.T) {
	candidates := []selection.Candidate{{ID: "only", Weight: 0.25}}
	got, err := selection.Pick(candidates, &fixedSource{val: 0.99})
	require.NoError(t, err)
	assert.Equal(t, "only", got.ID)
}

func TestPick_ZeroWeightNeverSelected(t *testing.T) {
	candidates := []selection.Candidate{
		{ID: "dead", Weight: 0},
		{ID: "live", Weight: 1},
		{ID: "dud", Weight: 0},
	}
	src := rng.NewSeededSource(1)
	for i := 0; i < 1000; i++ {
		got, err := selection.Pick(candidates, src)
		require.NoError(t, err)
		assert.Equal(t, "live", got.ID)
	}
}

func TestPick_UpperEdgeFallsBackToLastPositiveWeight(t *testing.T) {
	// A source returning 1.0 violates the [0, 1) contract but models the
	// float-rounding edge where the point reaches the total. The draw must
	// still land on a candidate that can legally win.
	candidates := []selection.Candidate{
		{ID: "a", Weight: 2},
		{ID: "b", Weight: 3},
		{ID: "dud", Weight: 0},
	}
	got, err := selection.Pick(candidates, &fixedSource{val: 1.0})
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)
}

func TestPickIndex_MatchesPick(t *testing.T) {
	weights := []float64{5, 0, 15}
	i, err := selection.PickIndex(weights, &fixedSource{val: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 2, i) // point 10 of 20 lands past 5+0
}

func TestPick_Property_WinnerAlwaysHasPositiveWeight(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		weights := make([]float64, n)
		var total float64
		for i := range weights {
			weights[i] = rapid.Float64Range(0, 100).Draw(rt, "weight")
			total += weights[i]
		}
		if total == 0 {
			return
		}
		roll := rapid.Float64Range(0, 0.999999).Draw(rt, "roll")
		i, err := selection.PickIndex(weights, &fixedSource{val: roll})
		require.NoError(rt, err)
		assert.Greater(rt, weights[i], 0.0)
	})
}

func TestPick_Property_ProportionsApproximateWeights(t *testing.T) {
	// A 1:3 weight split over many crypto draws should land near 25%/75%.
	candidates := []selection.Candidate{
		{ID: "light", Weight: 1},
		{ID: "heavy", Weight: 3},
	}
	src := rng.NewCryptoSource()
	counts := map[string]int{}
	const trials = 20000
	for i := 0; i < trials; i++ {
		got, err := selection.Pick(candidates, src)
		require.NoError(t, err)
		counts[got.ID]++
	}
	lightShare := float64(counts["light"]) / trials
	assert.InDelta(t, 0.25, lightShare, 0.02)
}
