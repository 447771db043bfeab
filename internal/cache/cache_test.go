package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/strikepoint/server/internal/cache"
	"github.com/strikepoint/server/internal/game/encounter"
	"github.com/strikepoint/server/internal/testutil"
)

func setupCache(t *testing.T) (*cache.SessionCache, *redis.Client) {
	t.Helper()
	ctx := context.Background()

	rc := testutil.NewRedisContainer(t)
	client, err := cache.NewClient(ctx, rc.Config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewSessionCache(client, 15*time.Minute, zaptest.NewLogger(t)), client
}

func testSession() *encounter.Session {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &encounter.Session{
		ID:          uuid.New().String(),
		UserID:      "user-1",
		LocationID:  "loc-1",
		EnemyTypeID: "sewer-rat",
		CombatLevel: 2,
		PlayerHP:    50,
		EnemyHP:     40,
		TurnNumber:  3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestSessionCache_PutGetDrop(t *testing.T) {
	ctx := context.Background()
	sc, _ := setupCache(t)

	sess := testSession()
	_, ok := sc.Get(ctx, sess.ID)
	assert.False(t, ok, "unknown sessions miss")

	sc.Put(ctx, sess)
	got, ok := sc.Get(ctx, sess.ID)
	require.True(t, ok)
	assert.Equal(t, sess, got)

	sc.Drop(ctx, sess.ID)
	_, ok = sc.Get(ctx, sess.ID)
	assert.False(t, ok, "dropped sessions miss")

	sc.Drop(ctx, sess.ID) // dropping twice is a no-op
}

func TestSessionCache_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	sc, _ := setupCache(t)

	sess := testSession()
	sc.Put(ctx, sess)

	next := *sess
	next.TurnNumber = 4
	next.EnemyHP = 25
	sc.Put(ctx, &next)

	got, ok := sc.Get(ctx, sess.ID)
	require.True(t, ok)
	assert.Equal(t, 4, got.TurnNumber)
	assert.Equal(t, 25, got.EnemyHP)
}

func TestSessionCache_EntriesCarryTTL(t *testing.T) {
	ctx := context.Background()
	sc, client := setupCache(t)

	sess := testSession()
	sc.Put(ctx, sess)

	ttl, err := client.TTL(ctx, "combat:session:"+sess.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "entries expire on their own")
	assert.LessOrEqual(t, ttl, 15*time.Minute)
}

func TestSessionCache_UnparseableEntryMissesAndDrops(t *testing.T) {
	ctx := context.Background()
	sc, client := setupCache(t)

	key := "combat:session:broken"
	require.NoError(t, client.Set(ctx, key, "{not json", 0).Err())

	_, ok := sc.Get(ctx, "broken")
	assert.False(t, ok)

	exists, err := client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists, "the broken entry is removed")
}
