// Package testutil provides shared test helpers for skelly packages.
package testutil

import (
	"context"
	"testing"

	"github.com/maloquacious/skelly/internal/store"
	"github.com/maloquacious/skelly/internal/store/sqlite"
)

// NewStore opens an in-memory SQLite store for testing.
// The store is automatically closed when the test completes; a test that
// closes it itself is fine, the cleanup ignores the misuse error.
func NewStore(t testing.TB) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), sqlite.Config{Location: store.Memory})
	if err != nil {
		t.Fatalf("testutil.NewStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// NewInitializedStore is NewStore followed by InitSchema.
func NewInitializedStore(t testing.TB) *sqlite.Store {
	t.Helper()
	s := NewStore(t)
	if err := s.InitSchema(context.Background()); err != nil {
		t.Fatalf("testutil.NewInitializedStore: %v", err)
	}
	return s
}
