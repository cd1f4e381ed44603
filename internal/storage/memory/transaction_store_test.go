package memory

import (
	"context"
	"errors"
	"testing"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/storage"
)

func TestTransactionStore_InsertBulkAndGet(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	txs := []*domain.Transaction{
		{ID: "t1", WalletID: "w2", Action: domain.ActionDeposit, AmountUSD: 100, Timestamp: 30},
		{ID: "t2", WalletID: "w1", Action: domain.ActionBorrow, AmountUSD: 50, Timestamp: 10},
		{ID: "t3", WalletID: "w2", Action: domain.ActionRepay, AmountUSD: 25, Timestamp: 20},
	}

	if err := store.InsertBulk(ctx, txs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(all))
	}
	for i, want := range []string{"t1", "t2", "t3"} {
		if all[i].ID != want {
			t.Errorf("position %d: expected %s, got %s (insertion order)", i, want, all[i].ID)
		}
	}

	w2, err := store.GetByWallet(ctx, "w2")
	if err != nil {
		t.Fatalf("GetByWallet failed: %v", err)
	}
	if len(w2) != 2 || w2[0].ID != "t1" || w2[1].ID != "t3" {
		t.Errorf("unexpected wallet transactions: %+v", w2)
	}
}

func TestTransactionStore_DuplicateKey(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	tx := &domain.Transaction{ID: "t1", WalletID: "w1"}
	if err := store.InsertBulk(ctx, []*domain.Transaction{tx}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.Transaction{{ID: "t2", WalletID: "w1"}, tx})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Failed batch must not be partially applied
	all, _ := store.GetAll(ctx)
	if len(all) != 1 {
		t.Errorf("Expected 1 transaction after failed batch, got %d", len(all))
	}
}

func TestTransactionStore_IntraBatchDuplicate(t *testing.T) {
	store := NewTransactionStore()

	err := store.InsertBulk(context.Background(), []*domain.Transaction{
		{ID: "t1", WalletID: "w1"},
		{ID: "t1", WalletID: "w1"},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTransactionStore_InvalidInput(t *testing.T) {
	store := NewTransactionStore()

	err := store.InsertBulk(context.Background(), []*domain.Transaction{{ID: "t1"}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestTransactionStore_ReturnsCopies(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	tx := &domain.Transaction{ID: "t1", WalletID: "w1", AmountUSD: 10}
	_ = store.InsertBulk(ctx, []*domain.Transaction{tx})
	tx.AmountUSD = 999

	all, _ := store.GetAll(ctx)
	all[0].AmountUSD = 500

	again, _ := store.GetAll(ctx)
	if again[0].AmountUSD != 10 {
		t.Errorf("store state mutated through caller pointer: %f", again[0].AmountUSD)
	}
}
