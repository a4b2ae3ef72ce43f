package store

import (
	"context"
	"fmt"
)

// ModeSlotName holds the remembered guest choice between runs.
const ModeSlotName = "todoflow_mode"

const guestMode = "guest"

// GuestMarker remembers that the user chose to continue without an
// account, so the next start skips the sign-in prompt.
type GuestMarker struct {
	slot Slot
	name string
}

// NewGuestMarker returns a marker stored under ModeSlotName.
func NewGuestMarker(slot Slot) *GuestMarker {
	return &GuestMarker{slot: slot, name: ModeSlotName}
}

// IsSet reports whether guest mode was chosen.
func (m *GuestMarker) IsSet(ctx context.Context) (bool, error) {
	data, ok, err := m.slot.Read(ctx, m.name)
	if err != nil {
		return false, fmt.Errorf("reading mode marker: %w", err)
	}
	return ok && string(data) == guestMode, nil
}

// Set records or forgets the guest choice.
func (m *GuestMarker) Set(ctx context.Context, on bool) error {
	var data []byte
	if on {
		data = []byte(guestMode)
	}
	if err := m.slot.Write(ctx, m.name, data); err != nil {
		return fmt.Errorf("writing mode marker: %w", err)
	}
	return nil
}
