package weapon_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikepoint/server/internal/game/bands"
	"github.com/strikepoint/server/internal/game/weapon"
)

func validDef() weapon.Def {
	return weapon.Def{
		ID:     "rusty-pistol",
		Name:   "Rusty Pistol",
		Attack: 10,
		Bands:  bands.Config{Injure: 20, Miss: 100, Graze: 80, Normal: 140, Crit: 20},
	}
}

func TestDef_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d := validDef()
		assert.NoError(t, d.Validate())
	})

	tests := []struct {
		name   string
		mutate func(*weapon.Def)
	}{
		{"missing id", func(d *weapon.Def) { d.ID = "" }},
		{"missing name", func(d *weapon.Def) { d.Name = "" }},
		{"negative attack", func(d *weapon.Def) { d.Attack = -1 }},
		{"negative band", func(d *weapon.Def) { d.Bands.Miss = -1 }},
		{"bands exceed the circle", func(d *weapon.Def) { d.Bands.Normal = 300 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDef()
			tt.mutate(&d)
			assert.Error(t, d.Validate())
		})
	}
}

func TestLoadWeapons(t *testing.T) {
	dir := t.TempDir()

	write := func(name, contents string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
	}

	write("pistol.yaml", `
id: rusty-pistol
name: Rusty Pistol
attack: 10
bands:
  injure: 20
  miss: 100
  graze: 80
  normal: 140
  crit: 20
`)
	write("bat.yaml", `
id: nail-bat
name: Nail Bat
attack: 14
bands:
  injure: 30
  miss: 120
  graze: 90
  normal: 105
  crit: 15
`)

	weapons, err := weapon.LoadWeapons(dir)
	require.NoError(t, err)
	require.Len(t, weapons, 2)

	// os.ReadDir returns entries sorted by name.
	assert.Equal(t, "nail-bat", weapons[0].ID)
	assert.Equal(t, "rusty-pistol", weapons[1].ID)
	assert.InDelta(t, 100.0, weapons[1].Bands.Miss, 1e-9)
}

func TestLoadWeapons_InvalidWeapon(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(`
id: broken
name: Broken
attack: 5
bands:
  injure: 200
  miss: 200
  graze: 50
  normal: 50
  crit: 10
`), 0o644))

	_, err := weapon.LoadWeapons(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid weapon")
}
