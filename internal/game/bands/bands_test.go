package bands_test

import (
	"testing"

	"github.com/strikepoint/server/internal/game/bands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func pistolBands() bands.Config {
	return bands.Config{Injure: 20, Miss: 100, Graze: 80, Normal: 140, Crit: 20}
}

func TestConfig_Validate_AcceptsValid(t *testing.T) {
	assert.NoError(t, pistolBands().Validate())
}

func TestConfig_Validate_AcceptsSumBelowFullCircle(t *testing.T) {
	cfg := bands.Config{Injure: 10, Miss: 50, Graze: 40, Normal: 100, Crit: 10}
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_RejectsNegativeBand(t *testing.T) {
	cfg := pistolBands()
	cfg.Graze = -1
	err := cfg.Validate()
	assert.ErrorIs(t, err, bands.ErrInvalidConfig)
}

func TestConfig_Validate_RejectsSumOverFullCircle(t *testing.T) {
	cfg := bands.Config{Injure: 100, Miss: 100, Graze: 100, Normal: 100, Crit: 100}
	err := cfg.Validate()
	assert.ErrorIs(t, err, bands.ErrInvalidConfig)
}

func TestAdjust_ZeroAccuracyKeepsBaseWidths(t *testing.T) {
	adj, err := bands.Adjust(pistolBands(), 0, bands.DefaultCurve())
	require.NoError(t, err)
	assert.Equal(t, 20.0, adj.Injure)
	assert.Equal(t, 100.0, adj.Miss)
	assert.Equal(t, 80.0, adj.Graze)
	assert.Equal(t, 140.0, adj.Normal)
	assert.Equal(t, 20.0, adj.Crit)
}

func TestAdjust_FullAccuracyShrinksPenaltyBands(t *testing.T) {
	adj, err := bands.Adjust(pistolBands(), 100, bands.DefaultCurve())
	require.NoError(t, err)
	// Shrink 0.75 leaves a quarter of injure and miss.
	assert.InDelta(t, 5.0, adj.Injure, 1e-9)
	assert.InDelta(t, 25.0, adj.Miss, 1e-9)
	assert.Equal(t, 80.0, adj.Graze)
	// 90 freed degrees: 54 to crit, 36 to normal.
	assert.InDelta(t, 74.0, adj.Crit, 1e-9)
	assert.InDelta(t, 176.0, adj.Normal, 1e-9)
	assert.InDelta(t, bands.FullCircle, adj.Sum(), 1e-9)
}

func TestAdjust_ShortfallWidensNormal(t *testing.T) {
	cfg := bands.Config{Injure: 10, Miss: 50, Graze: 40, Normal: 100, Crit: 10}
	adj, err := bands.Adjust(cfg, 0, bands.DefaultCurve())
	require.NoError(t, err)
	// The 150 missing degrees land in the normal band.
	assert.InDelta(t, 250.0, adj.Normal, 1e-9)
	assert.InDelta(t, bands.FullCircle, adj.Sum(), 1e-9)
}

func TestAdjust_ClampsAccuracy(t *testing.T) {
	curve := bands.DefaultCurve()
	low, err := bands.Adjust(pistolBands(), -20, curve)
	require.NoError(t, err)
	zero, err := bands.Adjust(pistolBands(), 0, curve)
	require.NoError(t, err)
	assert.Equal(t, zero, low)

	high, err := bands.Adjust(pistolBands(), 250, curve)
	require.NoError(t, err)
	full, err := bands.Adjust(pistolBands(), 100, curve)
	require.NoError(t, err)
	assert.Equal(t, full, high)
}

func TestAdjust_RejectsInvalidConfig(t *testing.T) {
	cfg := pistolBands()
	cfg.Miss = -5
	_, err := bands.Adjust(cfg, 50, bands.DefaultCurve())
	assert.ErrorIs(t, err, bands.ErrInvalidConfig)
}

func TestAdjust_Property_SumIsAlwaysFullCircle(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := drawConfig(rt)
		accuracy := rapid.Float64Range(0, 100).Draw(rt, "accuracy")
		adj, err := bands.Adjust(cfg, accuracy, bands.DefaultCurve())
		require.NoError(rt, err)
		assert.InDelta(rt, bands.FullCircle, adj.Sum(), 1e-9)
	})
}

func TestAdjust_Property_PenaltyBandsShrinkMonotonically(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := drawConfig(rt)
		lo := rapid.Float64Range(0, 100).Draw(rt, "lo")
		hi := rapid.Float64Range(lo, 100).Draw(rt, "hi")
		curve := bands.DefaultCurve()

		a, err := bands.Adjust(cfg, lo, curve)
		require.NoError(rt, err)
		b, err := bands.Adjust(cfg, hi, curve)
		require.NoError(rt, err)

		assert.LessOrEqual(rt, b.Injure, a.Injure)
		assert.LessOrEqual(rt, b.Miss, a.Miss)
		assert.GreaterOrEqual(rt, b.Crit, a.Crit)
		assert.Equal(rt, a.Graze, b.Graze)
	})
}

func drawConfig(rt *rapid.T) bands.Config {
	// Five non-negative widths scaled so their sum stays within the circle.
	injure := rapid.Float64Range(0, 72).Draw(rt, "injure")
	miss := rapid.Float64Range(0, 72).Draw(rt, "miss")
	graze := rapid.Float64Range(0, 72).Draw(rt, "graze")
	normal := rapid.Float64Range(0, 72).Draw(rt, "normal")
	crit := rapid.Float64Range(0, 72).Draw(rt, "crit")
	return bands.Config{Injure: injure, Miss: miss, Graze: graze, Normal: normal, Crit: crit}
}

// --- ResolveZone ---

func TestResolveZone_WalksDialInOrder(t *testing.T) {
	adj := bands.Adjusted{Injure: 5, Miss: 45, Graze: 60, Normal: 200, Crit: 50}
	tests := []struct {
		tap  float64
		want bands.Zone
	}{
		{0.0, bands.ZoneInjure},    // 0 degrees
		{0.01, bands.ZoneInjure},   // 3.6
		{0.02, bands.ZoneMiss},     // 7.2
		{0.1, bands.ZoneMiss},      // 36
		{0.15, bands.ZoneGraze},    // 54
		{0.3, bands.ZoneGraze},     // 108
		{0.31, bands.ZoneNormal},   // 111.6
		{0.8, bands.ZoneNormal},    // 288
		{0.87, bands.ZoneCrit},     // 313.2
		{0.99, bands.ZoneCrit},     // 356.4
		{1.0, bands.ZoneCrit},      // top of the dial
	}
	for _, tc := range tests {
		got, err := bands.ResolveZone(adj, tc.tap)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "tap=%g", tc.tap)
	}
}

func TestResolveZone_RejectsOutOfRangeTap(t *testing.T) {
	adj := bands.Adjusted{Injure: 5, Miss: 45, Graze: 60, Normal: 200, Crit: 50}
	_, err := bands.ResolveZone(adj, -0.01)
	assert.ErrorIs(t, err, bands.ErrInvalidTapPosition)
	_, err = bands.ResolveZone(adj, 1.01)
	assert.ErrorIs(t, err, bands.ErrInvalidTapPosition)
}

func TestResolveZone_SkipsZeroWidthBands(t *testing.T) {
	// No injure band: tap 0 falls straight into miss.
	adj := bands.Adjusted{Injure: 0, Miss: 50, Graze: 60, Normal: 200, Crit: 50}
	got, err := bands.ResolveZone(adj, 0)
	require.NoError(t, err)
	assert.Equal(t, bands.ZoneMiss, got)
}

func TestResolveZone_TapOneLandsOnLastNonEmptyBand(t *testing.T) {
	// Crit has zero width, so the dial ends with normal.
	adj := bands.Adjusted{Injure: 10, Miss: 50, Graze: 60, Normal: 240, Crit: 0}
	got, err := bands.ResolveZone(adj, 1.0)
	require.NoError(t, err)
	assert.Equal(t, bands.ZoneNormal, got)
}

func TestResolveZone_Property_EveryTapResolves(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := drawConfig(rt)
		accuracy := rapid.Float64Range(0, 100).Draw(rt, "accuracy")
		adj, err := bands.Adjust(cfg, accuracy, bands.DefaultCurve())
		require.NoError(rt, err)

		tap := rapid.Float64Range(0, 1).Draw(rt, "tap")
		zone, err := bands.ResolveZone(adj, tap)
		require.NoError(rt, err)
		assert.Contains(rt, []bands.Zone{
			bands.ZoneInjure, bands.ZoneMiss, bands.ZoneGraze, bands.ZoneNormal, bands.ZoneCrit,
		}, zone)
	})
}

func TestResolveZone_Property_ZeroWidthZoneNeverWins(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		// Graze carved out entirely; its zone must be unreachable.
		adj := bands.Adjusted{Injure: 30, Miss: 90, Graze: 0, Normal: 180, Crit: 60}
		tap := rapid.Float64Range(0, 1).Draw(rt, "tap")
		zone, err := bands.ResolveZone(adj, tap)
		require.NoError(rt, err)
		assert.NotEqual(rt, bands.ZoneGraze, zone)
	})
}

func TestZone_String(t *testing.T) {
	assert.Equal(t, "injure", bands.ZoneInjure.String())
	assert.Equal(t, "miss", bands.ZoneMiss.String())
	assert.Equal(t, "graze", bands.ZoneGraze.String())
	assert.Equal(t, "normal", bands.ZoneNormal.String())
	assert.Equal(t, "crit", bands.ZoneCrit.String())
	assert.Equal(t, "unknown", bands.Zone(99).String())
}
