package persist

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// SlotInfo describes one saved game.
type SlotInfo struct {
	Name    string
	Size    int64
	SavedAt time.Time
}

// MatchResult is appended when a match ends.
type MatchResult struct {
	Level    string
	Mode     string
	Duration float32 // seconds
	Winner   string
	EndedAt  time.Time
}

// Store keeps save blobs by slot name. Implementations are safe for
// concurrent use.
type Store interface {
	Save(ctx context.Context, slot string, blob []byte) error
	// Load returns ErrSlotNotFound for an unknown slot.
	Load(ctx context.Context, slot string) ([]byte, error)
	List(ctx context.Context) ([]SlotInfo, error)
	Delete(ctx context.Context, slot string) error
	RecordMatch(ctx context.Context, r MatchResult) error
	Close() error
}

var slotName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func checkSlot(slot string) error {
	if !slotName.MatchString(slot) {
		return fmt.Errorf("%q: %w", slot, ErrInvalidSlot)
	}
	return nil
}
