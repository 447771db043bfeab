// Package bands implements the hit-zone geometry for timed attacks. A
// weapon's five bands — injure, miss, graze, normal, crit — partition a
// 360-degree dial; the attacker's accuracy reshapes the dial, and the tap
// position resolves to the zone whose arc contains it.
package bands

import (
	"errors"
	"fmt"
)

// FullCircle is the dial size in degrees.
const FullCircle = 360.0

// ErrInvalidConfig is returned when a weapon's base band widths are negative
// or sum past the full circle.
var ErrInvalidConfig = errors.New("bands: invalid band configuration")

// Config holds a weapon's base band widths in degrees, before accuracy
// scaling. Widths may sum below FullCircle; the shortfall widens the normal
// band during adjustment.
type Config struct {
	Injure float64 `yaml:"injure"`
	Miss   float64 `yaml:"miss"`
	Graze  float64 `yaml:"graze"`
	Normal float64 `yaml:"normal"`
	Crit   float64 `yaml:"crit"`
}

// Sum returns the total width of all five bands.
func (c Config) Sum() float64 {
	return c.Injure + c.Miss + c.Graze + c.Normal + c.Crit
}

// Validate checks the base band widths.
//
// Postcondition: Returns nil iff every band is >= 0 and the widths sum to at
// most FullCircle.
func (c Config) Validate() error {
	named := []struct {
		name  string
		width float64
	}{
		{"injure", c.Injure},
		{"miss", c.Miss},
		{"graze", c.Graze},
		{"normal", c.Normal},
		{"crit", c.Crit},
	}
	for _, b := range named {
		if b.width < 0 {
			return fmt.Errorf("%w: %s band is negative (%g)", ErrInvalidConfig, b.name, b.width)
		}
	}
	if sum := c.Sum(); sum > FullCircle {
		return fmt.Errorf("%w: bands sum to %g degrees, must not exceed %g", ErrInvalidConfig, sum, FullCircle)
	}
	return nil
}

// Adjusted holds the accuracy-scaled band widths.
//
// Invariant: The five widths sum to exactly FullCircle.
type Adjusted struct {
	Injure float64
	Miss   float64
	Graze  float64
	Normal float64
	Crit   float64
}

// Curve controls how accuracy reshapes the dial. Both fields are tuning
// parameters loaded from configuration.
type Curve struct {
	// Shrink is the fraction of the injure and miss bands removed at
	// accuracy 100. 0.75 leaves a quarter of the base width.
	Shrink float64 `mapstructure:"shrink" yaml:"shrink"`
	// CritShare is the fraction of the freed degrees granted to the crit
	// band; the remainder widens the normal band.
	CritShare float64 `mapstructure:"crit_share" yaml:"crit_share"`
}

// DefaultCurve returns the production tuning.
func DefaultCurve() Curve {
	return Curve{Shrink: 0.75, CritShare: 0.6}
}

// Adjust scales cfg for the given accuracy. Accuracy outside [0, 100] is
// clamped. As accuracy rises, injure and miss shrink linearly, crit grows by
// its share of the freed degrees, graze is untouched, and normal absorbs
// everything left over so the dial always closes exactly.
//
// Precondition: curve fields must be in [0, 1] (enforced at config load).
// Postcondition: The returned widths sum to exactly FullCircle; injure and
// miss never exceed their base widths; crit never falls below its base width.
func Adjust(cfg Config, accuracy float64, curve Curve) (Adjusted, error) {
	if err := cfg.Validate(); err != nil {
		return Adjusted{}, err
	}
	if accuracy < 0 {
		accuracy = 0
	}
	if accuracy > 100 {
		accuracy = 100
	}
	t := accuracy / 100

	adj := Adjusted{
		Injure: cfg.Injure * (1 - curve.Shrink*t),
		Miss:   cfg.Miss * (1 - curve.Shrink*t),
		Graze:  cfg.Graze,
	}
	freed := (cfg.Injure - adj.Injure) + (cfg.Miss - adj.Miss)
	adj.Crit = cfg.Crit + freed*curve.CritShare

	// Normal takes the remainder, closing the circle by construction and
	// soaking up any base-config shortfall below FullCircle.
	adj.Normal = FullCircle - adj.Injure - adj.Miss - adj.Graze - adj.Crit
	return adj, nil
}

// Sum returns the total width of all five adjusted bands.
func (a Adjusted) Sum() float64 {
	return a.Injure + a.Miss + a.Graze + a.Normal + a.Crit
}
