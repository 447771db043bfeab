package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikepoint/server/internal/game/encounter"
	"github.com/strikepoint/server/internal/storage/memory"
)

func TestLogStore_SeqAssignment(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLogStore()

	seq, err := store.NextSeq(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, seq, "sequences start at 1")

	require.NoError(t, store.Append(ctx, &encounter.LogEvent{
		CombatID: "c1", Seq: 1, Actor: encounter.ActorEnemy, Type: encounter.EventSpawn,
	}))

	seq, err = store.NextSeq(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, seq)

	seq, err = store.NextSeq(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, 1, seq, "sequences are per session")
}

func TestLogStore_AppendRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLogStore()

	ev := &encounter.LogEvent{CombatID: "c1", Seq: 1, Actor: encounter.ActorPlayer, Type: encounter.EventAttack}
	require.NoError(t, store.Append(ctx, ev))

	err := store.Append(ctx, &encounter.LogEvent{CombatID: "c1", Seq: 1, Actor: encounter.ActorEnemy, Type: encounter.EventCounter})
	assert.ErrorIs(t, err, encounter.ErrDuplicateLogSeq)

	assert.Error(t, store.Append(ctx, &encounter.LogEvent{CombatID: "c1", Seq: 0}), "seq below 1")
}

func TestLogStore_ListOrdersBySeq(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLogStore()

	require.NoError(t, store.Append(ctx, &encounter.LogEvent{CombatID: "c1", Seq: 2, Type: encounter.EventAttack}))
	require.NoError(t, store.Append(ctx, &encounter.LogEvent{CombatID: "c1", Seq: 1, Type: encounter.EventSpawn}))
	require.NoError(t, store.Append(ctx, &encounter.LogEvent{CombatID: "c1", Seq: 3, Type: encounter.EventOutcome}))

	events, err := store.List(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, encounter.EventSpawn, events[0].Type)
	assert.Equal(t, encounter.EventAttack, events[1].Type)
	assert.Equal(t, encounter.EventOutcome, events[2].Type)

	empty, err := store.List(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
