package pool

import "errors"

// ErrNoMatchingPool is returned by Aggregate when no pool applies to the
// requested location and level. Content is expected to ship a universal
// fallback pool, so hitting this usually means a content gap.
var ErrNoMatchingPool = errors.New("no pool matches the location and level")

// Aggregate merges the members of every pool that matches loc and level into
// one weighted candidate set. Weights are summed when the same
// (CandidateID, Category) pair appears in more than one matching pool; a
// universal pool therefore boosts, rather than replaces, location-specific
// entries. Member order is the order members were first seen, so the result
// is deterministic for a given pool order.
//
// Precondition: pools have been validated on load.
// Postcondition: returns a non-nil slice, or ErrNoMatchingPool when nothing
// matched.
func Aggregate(pools []*Pool, loc Location, level int) ([]Member, error) {
	type key struct {
		candidateID string
		category    Category
	}

	merged := make([]Member, 0)
	index := make(map[key]int)
	matched := false
	for _, p := range pools {
		if !p.Matches(loc, level) {
			continue
		}
		matched = true
		for _, m := range p.Members {
			k := key{candidateID: m.CandidateID, category: m.Category}
			if i, ok := index[k]; ok {
				merged[i].Weight += m.Weight
				continue
			}
			index[k] = len(merged)
			merged = append(merged, m)
		}
	}
	if !matched {
		return nil, ErrNoMatchingPool
	}
	return merged, nil
}
