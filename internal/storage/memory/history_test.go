package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikepoint/server/internal/game/encounter"
	"github.com/strikepoint/server/internal/storage/memory"
)

func TestHistoryStore_RecordAccumulates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewHistoryStore()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := store.Record(ctx, "user-1", "loc-1", encounter.OutcomeVictory, at.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	rec, err := store.Record(ctx, "user-1", "loc-1", encounter.OutcomeDefeat, at.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 4, rec.TotalAttempts)
	assert.Equal(t, 3, rec.Victories)
	assert.Equal(t, 1, rec.Defeats)
	assert.Equal(t, 0, rec.CurrentStreak, "a defeat breaks the streak")
	assert.Equal(t, 3, rec.LongestStreak)
	assert.Equal(t, at.Add(time.Hour), rec.LastAttempt)
}

func TestHistoryStore_KeyedByUserAndLocation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewHistoryStore()
	at := time.Now().UTC()

	_, err := store.Record(ctx, "user-1", "loc-1", encounter.OutcomeVictory, at)
	require.NoError(t, err)
	_, err = store.Record(ctx, "user-1", "loc-2", encounter.OutcomeEscape, at)
	require.NoError(t, err)

	one, err := store.Get(ctx, "user-1", "loc-1")
	require.NoError(t, err)
	two, err := store.Get(ctx, "user-1", "loc-2")
	require.NoError(t, err)

	assert.Equal(t, 1, one.Victories)
	assert.Equal(t, 0, one.Escapes)
	assert.Equal(t, 1, two.Escapes)
	assert.Equal(t, 0, two.Victories)
}

func TestHistoryStore_GetUnknownIsZeroValued(t *testing.T) {
	ctx := context.Background()
	store := memory.NewHistoryStore()

	rec, err := store.Get(ctx, "user-9", "loc-9")
	require.NoError(t, err)
	assert.Equal(t, "user-9", rec.UserID)
	assert.Equal(t, "loc-9", rec.LocationID)
	assert.Zero(t, rec.TotalAttempts)
}
