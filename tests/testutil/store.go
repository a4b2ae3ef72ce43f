package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/Deepanshu954/TodoFlow/internal/store"
)

// NewTestSlot creates an in-memory SQLiteSlot with all migrations applied.
// It automatically closes the slot when the test completes.
func NewTestSlot(t *testing.T) *store.SQLiteSlot {
	t.Helper()

	s, err := store.NewSQLiteSlot(":memory:")
	if err != nil {
		t.Fatalf("creating test slot: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test slot: %v", err)
		}
	})

	return s
}

// ErrQuotaExceeded is returned by FailingSlot writes.
var ErrQuotaExceeded = errors.New("quota exceeded")

// FailingSlot wraps a Slot and fails writes while FailWrites is set.
type FailingSlot struct {
	store.Slot
	FailWrites bool
}

// Write fails with ErrQuotaExceeded when FailWrites is set.
func (f *FailingSlot) Write(ctx context.Context, name string, data []byte) error {
	if f.FailWrites {
		return ErrQuotaExceeded
	}
	return f.Slot.Write(ctx, name, data)
}
