package testsupport

import (
	"context"
	"testing"

	"fatura/internal/config"
	"fatura/internal/invoice"
	"fatura/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewFile creates a pending ledger item for tests using the provided store.
func NewFile(t testing.TB, store *queue.Store, sourcePath string, vendor invoice.VendorType) *queue.Item {
	t.Helper()

	item, err := store.NewFile(context.Background(), sourcePath, vendor)
	if err != nil {
		t.Fatalf("store.NewFile: %v", err)
	}
	return item
}
