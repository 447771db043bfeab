package encounter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/strikepoint/server/internal/game/encounter"
)

func TestSession_Active(t *testing.T) {
	s := encounter.Session{}
	assert.True(t, s.Active())

	for _, outcome := range []encounter.Outcome{
		encounter.OutcomeVictory,
		encounter.OutcomeDefeat,
		encounter.OutcomeEscape,
		encounter.OutcomeAbandoned,
	} {
		s.Outcome = outcome
		assert.False(t, s.Active(), "outcome %s", outcome)
	}
}

func TestSession_Expired(t *testing.T) {
	ttl := 15 * time.Minute
	last := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := encounter.Session{UpdatedAt: last}

	assert.False(t, s.Expired(ttl, last))
	assert.False(t, s.Expired(ttl, last.Add(ttl-time.Second)))
	assert.True(t, s.Expired(ttl, last.Add(ttl)), "expiry hits exactly at the TTL boundary")
	assert.True(t, s.Expired(ttl, last.Add(ttl+time.Hour)))

	s.Outcome = encounter.OutcomeVictory
	assert.False(t, s.Expired(ttl, last.Add(ttl+time.Hour)), "terminal sessions never expire")
}
