package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protocol-stats/internal/storage"
)

func TestLoadProgressStore_SetAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewLoadProgressStore(pool)

	_, err := store.GetProgress(ctx, "arbitrum", "fee_stats")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	progress := &storage.LoadProgress{
		Network:       "arbitrum",
		Series:        "fee_stats",
		LastTimestamp: 86400,
		LastID:        "r0001",
		Records:       10,
	}
	require.NoError(t, store.SetProgress(ctx, progress))

	// Upsert
	progress.LastTimestamp = 172800
	progress.Records = 20
	require.NoError(t, store.SetProgress(ctx, progress))

	retrieved, err := store.GetProgress(ctx, "arbitrum", "fee_stats")
	require.NoError(t, err)
	assert.Equal(t, int64(172800), retrieved.LastTimestamp)
	assert.Equal(t, int64(20), retrieved.Records)
	assert.Equal(t, "r0001", retrieved.LastID)
}

func TestLoadProgressStore_Dumps(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewLoadProgressStore(pool)

	loaded, err := store.IsDumpLoaded(ctx, "sha-1")
	require.NoError(t, err)
	assert.False(t, loaded)

	require.NoError(t, store.MarkDumpLoaded(ctx, "sha-1"))
	require.NoError(t, store.MarkDumpLoaded(ctx, "sha-1"))
	require.NoError(t, store.MarkDumpLoaded(ctx, "sha-0"))

	loaded, err = store.IsDumpLoaded(ctx, "sha-1")
	require.NoError(t, err)
	assert.True(t, loaded)

	dumps, err := store.LoadedDumps(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sha-0", "sha-1"}, dumps)

	_, err = store.IsDumpLoaded(ctx, "")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
