package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/strikepoint/server/internal/game/encounter"
	"github.com/strikepoint/server/internal/storage/postgres"
	"github.com/strikepoint/server/internal/testutil"
)

func TestHistoryRepository_RecordAccumulates(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewHistoryRepository(testutil.NewPool(t))
	at := baseTime

	for i := 0; i < 3; i++ {
		_, err := repo.Record(ctx, "user-1", "loc-1", encounter.OutcomeVictory, at.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	rec, err := repo.Record(ctx, "user-1", "loc-1", encounter.OutcomeDefeat, at.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 4, rec.TotalAttempts)
	assert.Equal(t, 3, rec.Victories)
	assert.Equal(t, 1, rec.Defeats)
	assert.Equal(t, 0, rec.CurrentStreak, "a defeat breaks the streak")
	assert.Equal(t, 3, rec.LongestStreak)
	assert.WithinDuration(t, at.Add(time.Hour), rec.LastAttempt, 0)
}

func TestHistoryRepository_KeyedByUserAndLocation(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewHistoryRepository(testutil.NewPool(t))

	_, err := repo.Record(ctx, "user-1", "loc-1", encounter.OutcomeVictory, baseTime)
	require.NoError(t, err)
	_, err = repo.Record(ctx, "user-1", "loc-2", encounter.OutcomeEscape, baseTime)
	require.NoError(t, err)

	one, err := repo.Get(ctx, "user-1", "loc-1")
	require.NoError(t, err)
	two, err := repo.Get(ctx, "user-1", "loc-2")
	require.NoError(t, err)

	assert.Equal(t, 1, one.Victories)
	assert.Equal(t, 0, one.Escapes)
	assert.Equal(t, 1, two.Escapes)
	assert.Equal(t, 0, two.Victories)
}

func TestHistoryRepository_GetUnknownIsZeroValued(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewHistoryRepository(testutil.NewPool(t))

	rec, err := repo.Get(ctx, "user-9", "loc-9")
	require.NoError(t, err)
	assert.Equal(t, "user-9", rec.UserID)
	assert.Equal(t, "loc-9", rec.LocationID)
	assert.Zero(t, rec.TotalAttempts)
}

// TestHistoryRepository_Property_AgreesWithApply drives the SQL upsert and
// History.Apply through the same outcome sequence and requires identical
// counters at the end. One container serves every rapid iteration; each
// iteration uses a fresh user.
func TestHistoryRepository_Property_AgreesWithApply(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewHistoryRepository(testutil.NewPool(t))

	outcomes := []encounter.Outcome{
		encounter.OutcomeVictory,
		encounter.OutcomeDefeat,
		encounter.OutcomeEscape,
		encounter.OutcomeAbandoned,
	}

	rapid.Check(t, func(rt *rapid.T) {
		userID := uuid.New().String()
		want := encounter.History{UserID: userID, LocationID: "loc-1"}

		n := rapid.IntRange(1, 12).Draw(rt, "n")
		var got *encounter.History
		for i := 0; i < n; i++ {
			outcome := rapid.SampledFrom(outcomes).Draw(rt, "outcome")
			at := baseTime.Add(time.Duration(i) * time.Minute)
			want.Apply(outcome, at)

			var err error
			got, err = repo.Record(ctx, userID, "loc-1", outcome, at)
			require.NoError(t, err)
		}

		assert.Equal(t, want.TotalAttempts, got.TotalAttempts)
		assert.Equal(t, want.Victories, got.Victories)
		assert.Equal(t, want.Defeats, got.Defeats)
		assert.Equal(t, want.Escapes, got.Escapes)
		assert.Equal(t, want.Abandons, got.Abandons)
		assert.Equal(t, want.CurrentStreak, got.CurrentStreak)
		assert.Equal(t, want.LongestStreak, got.LongestStreak)
		assert.WithinDuration(t, want.LastAttempt, got.LastAttempt, 0)
	})
}
