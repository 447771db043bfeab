package bands

import (
	"errors"
	"fmt"
)

// ErrInvalidTapPosition is returned when a tap position falls outside [0, 1].
var ErrInvalidTapPosition = errors.New("bands: tap position outside [0, 1]")

// Zone identifies the five hit zones in dial order.
type Zone int

const (
	ZoneInjure Zone = iota
	ZoneMiss
	ZoneGraze
	ZoneNormal
	ZoneCrit
)

// String returns the zone label used in combat logs and payloads.
func (z Zone) String() string {
	switch z {
	case ZoneInjure:
		return "injure"
	case ZoneMiss:
		return "miss"
	case ZoneGraze:
		return "graze"
	case ZoneNormal:
		return "normal"
	case ZoneCrit:
		return "crit"
	default:
		return "unknown"
	}
}

// ResolveZone maps a tap position in [0, 1] to the zone whose arc contains
// it. The dial is laid out in fixed order — injure, miss, graze, normal,
// crit — each arc starting where the previous ends; the first arc whose
// cumulative end passes the tap wins. Zero-width bands are skipped and can
// never win.
//
// Precondition: adj must come from Adjust.
// Postcondition: Returns a Zone, with tap 1.0 resolving to the last
// non-empty band, or ErrInvalidTapPosition.
func ResolveZone(adj Adjusted, tap float64) (Zone, error) {
	if tap < 0 || tap > 1 {
		return 0, fmt.Errorf("%w: %g", ErrInvalidTapPosition, tap)
	}
	deg := tap * FullCircle

	arcs := [...]struct {
		zone  Zone
		width float64
	}{
		{ZoneInjure, adj.Injure},
		{ZoneMiss, adj.Miss},
		{ZoneGraze, adj.Graze},
		{ZoneNormal, adj.Normal},
		{ZoneCrit, adj.Crit},
	}

	last := ZoneNormal
	var cum float64
	for _, a := range arcs {
		if a.width <= 0 {
			continue
		}
		cum += a.width
		if deg < cum {
			return a.zone, nil
		}
		last = a.zone
	}
	// deg reached the top of the dial (tap 1.0 or float rounding).
	return last, nil
}
