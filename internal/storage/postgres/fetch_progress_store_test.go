package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchProgressStore(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewFetchProgressStore(pool)

	fetched, err := store.IsWalletFetched(ctx, "0xabc")
	require.NoError(t, err)
	assert.False(t, fetched)

	require.NoError(t, store.MarkWalletFetched(ctx, "0xabc"))
	require.NoError(t, store.MarkWalletFetched(ctx, "0xabc"))
	require.NoError(t, store.MarkWalletFetched(ctx, "0x123"))

	fetched, err = store.IsWalletFetched(ctx, "0xabc")
	require.NoError(t, err)
	assert.True(t, fetched)

	wallets, err := store.LoadFetchedWallets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0x123", "0xabc"}, wallets)
}
