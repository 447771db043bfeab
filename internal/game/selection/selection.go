// Package selection implements weighted random selection over candidate
// pools. Selection is the single probability primitive behind enemy spawns
// and loot draws: a candidate's chance is always weight / total weight, and a
// zero-weight candidate can never win.
package selection

import (
	"errors"
	"fmt"
)

// ErrEmptyPool is returned when selecting from an empty candidate list.
var ErrEmptyPool = errors.New("selection: empty candidate pool")

// ErrZeroTotalWeight is returned when every candidate weight is zero. A pool
// that cannot produce a winner is a content defect, never a uniform draw.
var ErrZeroTotalWeight = errors.New("selection: total weight is zero")

// ErrNegativeWeight is returned when any candidate weight is negative.
var ErrNegativeWeight = errors.New("selection: negative weight")

// Candidate is one weighted entry in a selection pool.
type Candidate struct {
	ID     string
	Weight float64
}

// Source is the subset of rng.Source used by selection.
type Source interface {
	Float64() float64
}

// PickIndex draws an index into weights with probability proportional to
// weights[i]: a total is accumulated, a point in [0, total) is drawn, and the
// weights are walked until the cumulative sum passes the point.
//
// Precondition: src must be non-nil.
// Postcondition: Returns an index whose weight is > 0, or one of ErrEmptyPool,
// ErrZeroTotalWeight, ErrNegativeWeight.
func PickIndex(weights []float64, src Source) (int, error) {
	if len(weights) == 0 {
		return 0, ErrEmptyPool
	}

	var total float64
	for i, w := range weights {
		if w < 0 {
			return 0, fmt.Errorf("%w: weight %g at index %d", ErrNegativeWeight, w, i)
		}
		total += w
	}
	if total == 0 {
		return 0, ErrZeroTotalWeight
	}

	point := src.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if point < cum {
			return i, nil
		}
	}

	// Float accumulation can leave the point at or past the final cumulative
	// sum. Fall back to the last candidate that can legally win.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i, nil
		}
	}
	return 0, ErrZeroTotalWeight
}

// Pick draws one candidate with probability weight / total weight.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a candidate with Weight > 0, or one of ErrEmptyPool,
// ErrZeroTotalWeight, ErrNegativeWeight.
func Pick(candidates []Candidate, src Source) (Candidate, error) {
	weights := make([]float64, len(candidates))
	for i, c := range candidates {
		weights[i] = c.Weight
	}
	i, err := PickIndex(weights, src)
	if err != nil {
		return Candidate{}, err
	}
	return candidates[i], nil
}
