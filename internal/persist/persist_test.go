package persist

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestBlobRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("RVIS level state "), 500)
	blob := EncodeBlob(payload)
	if len(blob) >= len(payload) {
		t.Fatalf("blob %d bytes not smaller than payload %d", len(blob), len(payload))
	}
	got, err := DecodeBlob(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("payload changed")
	}
}

func TestBlobRejectsTampering(t *testing.T) {
	blob := EncodeBlob([]byte("hello"))
	flipped := bytes.Clone(blob)
	flipped[len(blobMagic)+3] ^= 0xff
	if _, err := DecodeBlob(flipped); !errors.Is(err, ErrChecksum) {
		t.Fatalf("err = %v, want ErrChecksum", err)
	}
	if _, err := DecodeBlob([]byte("RVIS")); !errors.Is(err, ErrNotABlob) {
		t.Fatalf("err = %v, want ErrNotABlob", err)
	}
}

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx, "quicksave"); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("load missing: err = %v", err)
	}
	if err := s.Save(ctx, "../escape", []byte("x")); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("bad slot: err = %v", err)
	}

	if err := s.Save(ctx, "quicksave", []byte("one")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "quicksave", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := s.Save(ctx, "autosave", []byte("three!")); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, "quicksave")
	if err != nil || string(got) != "two" {
		t.Fatalf("load = %q, %v", got, err)
	}

	slots, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(slots) != 2 || slots[0].Name != "autosave" || slots[0].Size != 6 || slots[1].Name != "quicksave" {
		t.Fatalf("slots = %+v", slots)
	}

	if err := s.Delete(ctx, "autosave"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "autosave"); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("delete twice: err = %v", err)
	}

	if err := s.RecordMatch(ctx, MatchResult{
		Level: "arena", Mode: "deathmatch", Duration: 42, Winner: "Bot_1", EndedAt: time.Now(),
	}); err != nil {
		t.Fatalf("record match: %v", err)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLStore(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "saves", "arena.db"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)

	if n, err := s.MatchCount(ctx); err != nil || n != 1 {
		t.Fatalf("match count = %d, %v", n, err)
	}
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "arena.db")
	s, err := OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "keep", []byte("data")); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if got, err := s.Load(ctx, "keep"); err != nil || string(got) != "data" {
		t.Fatalf("after reopen = %q, %v", got, err)
	}
}
