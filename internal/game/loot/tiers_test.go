package loot_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikepoint/server/internal/game/loot"
)

func TestLoadTierWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- tier: 1
  multiplier: 1.0
- tier: 2
  multiplier: 1.5
- tier: 3
  multiplier: 2.25
`), 0o644))

	tiers, err := loot.LoadTierWeights(path)
	require.NoError(t, err)
	require.Len(t, tiers, 3)
	assert.InDelta(t, 2.25, tiers.Multiplier(3), 1e-9)
}

func TestLoadTierWeights_InvalidTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- tier: 1
  multiplier: 1.0
- tier: 1
  multiplier: 2.0
`), 0o644))

	_, err := loot.LoadTierWeights(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate entry")
}

func TestLoadTierWeights_MissingFile(t *testing.T) {
	_, err := loot.LoadTierWeights(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
