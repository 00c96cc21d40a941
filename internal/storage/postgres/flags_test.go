package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dialogue/internal/storage/postgres"
	"github.com/cory-johannsen/dialogue/internal/testutil"
)

func flagStore(t *testing.T) *postgres.FlagStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return postgres.NewFlagStore(pc.RawPool)
}

func TestFlagStoreGetUnset(t *testing.T) {
	store := flagStore(t)
	ctx := context.Background()

	value, err := store.Get(ctx, postgres.OwnerPlayer, "Ada", "dialog_castle")
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestFlagStoreSetGetRoundTrip(t *testing.T) {
	store := flagStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, postgres.OwnerPlayer, "Ada", "dialog_castle", "stage:1"))

	value, err := store.Get(ctx, postgres.OwnerPlayer, "Ada", "dialog_castle")
	require.NoError(t, err)
	assert.Equal(t, "stage:1", value)
}

func TestFlagStoreUpsertOverwrites(t *testing.T) {
	store := flagStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, postgres.OwnerNPC, "Gorlak", "talked_to", "5"))
	require.NoError(t, store.Set(ctx, postgres.OwnerNPC, "Gorlak", "talked_to", "3"))

	value, err := store.Get(ctx, postgres.OwnerNPC, "Gorlak", "talked_to")
	require.NoError(t, err)
	assert.Equal(t, "3", value)
}

func TestFlagStoreOwnersAreIsolated(t *testing.T) {
	store := flagStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, postgres.OwnerPlayer, "Ada", "dialog_castle", "stage:1"))

	// Same key under a different kind or name reads empty.
	value, err := store.Get(ctx, postgres.OwnerNPC, "Ada", "dialog_castle")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	value, err = store.Get(ctx, postgres.OwnerPlayer, "Brin", "dialog_castle")
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestFlagStoreDeleteOwner(t *testing.T) {
	store := flagStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, postgres.OwnerNPC, "Gorlak", "dialog_castle_Ada", "stage:1"))
	require.NoError(t, store.Set(ctx, postgres.OwnerNPC, "Gorlak", "talked_to", "4"))
	require.NoError(t, store.Set(ctx, postgres.OwnerPlayer, "Ada", "dialog_castle", "stage:1"))

	removed, err := store.DeleteOwner(ctx, postgres.OwnerNPC, "Gorlak")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	value, err := store.Get(ctx, postgres.OwnerNPC, "Gorlak", "talked_to")
	require.NoError(t, err)
	assert.Equal(t, "", value)

	// Other owners keep their rows.
	value, err = store.Get(ctx, postgres.OwnerPlayer, "Ada", "dialog_castle")
	require.NoError(t, err)
	assert.Equal(t, "stage:1", value)
}

func TestStoredParticipant(t *testing.T) {
	store := flagStore(t)
	ctx := context.Background()

	p := postgres.NewStoredParticipant(ctx, store, postgres.OwnerPlayer, "Ada", 5, nil)
	assert.Equal(t, "Ada", p.Name())
	assert.Equal(t, 5, p.Level())

	assert.Equal(t, "", p.ReadKey("dialog_castle"))
	require.NoError(t, p.WriteKey("dialog_castle", "stage:2;met:1"))
	assert.Equal(t, "stage:2;met:1", p.ReadKey("dialog_castle"))

	// A second participant built over the same store sees the same rows.
	again := postgres.NewStoredParticipant(ctx, store, postgres.OwnerPlayer, "Ada", 5, nil)
	assert.Equal(t, "stage:2;met:1", again.ReadKey("dialog_castle"))
}
