package memory

import (
	"context"
	"errors"
	"testing"

	"wallet-risk-lab/internal/storage"
)

func TestFetchProgressStore(t *testing.T) {
	store := NewFetchProgressStore()
	ctx := context.Background()

	fetched, err := store.IsWalletFetched(ctx, "0xabc")
	if err != nil || fetched {
		t.Fatalf("expected unfetched wallet, got %v, %v", fetched, err)
	}

	if err := store.MarkWalletFetched(ctx, "0xabc"); err != nil {
		t.Fatalf("MarkWalletFetched failed: %v", err)
	}
	// Idempotent
	if err := store.MarkWalletFetched(ctx, "0xabc"); err != nil {
		t.Fatalf("second MarkWalletFetched failed: %v", err)
	}

	fetched, _ = store.IsWalletFetched(ctx, "0xabc")
	if !fetched {
		t.Error("expected wallet to be marked fetched")
	}

	wallets, _ := store.LoadFetchedWallets(ctx)
	if len(wallets) != 1 || wallets[0] != "0xabc" {
		t.Errorf("unexpected fetched wallets: %v", wallets)
	}
}

func TestFetchProgressStore_InvalidInput(t *testing.T) {
	store := NewFetchProgressStore()

	if err := store.MarkWalletFetched(context.Background(), ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
