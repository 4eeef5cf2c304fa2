package memory

import (
	"context"
	"errors"
	"testing"

	"protocol-stats/internal/storage"
)

func TestLoadProgressStore_Progress(t *testing.T) {
	store := NewLoadProgressStore()
	ctx := context.Background()

	_, err := store.GetProgress(ctx, "arbitrum", "fee_stats")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	p := &storage.LoadProgress{Network: "arbitrum", Series: "fee_stats", LastTimestamp: 100, LastID: "a", Records: 1}
	if err := store.SetProgress(ctx, p); err != nil {
		t.Fatalf("SetProgress failed: %v", err)
	}
	p.Records = 99

	got, err := store.GetProgress(ctx, "arbitrum", "fee_stats")
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if got.Records != 1 || got.LastID != "a" {
		t.Errorf("unexpected progress: %+v", got)
	}

	if err := store.SetProgress(ctx, &storage.LoadProgress{Network: "arbitrum"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestLoadProgressStore_Dumps(t *testing.T) {
	store := NewLoadProgressStore()
	ctx := context.Background()

	loaded, err := store.IsDumpLoaded(ctx, "abc")
	if err != nil || loaded {
		t.Fatalf("Expected unloaded dump, got %v %v", loaded, err)
	}

	if err := store.MarkDumpLoaded(ctx, "abc"); err != nil {
		t.Fatalf("MarkDumpLoaded failed: %v", err)
	}
	if err := store.MarkDumpLoaded(ctx, "abc"); err != nil {
		t.Fatalf("MarkDumpLoaded should be idempotent: %v", err)
	}

	loaded, _ = store.IsDumpLoaded(ctx, "abc")
	if !loaded {
		t.Error("Expected dump to be loaded")
	}

	dumps, _ := store.LoadedDumps(ctx)
	if len(dumps) != 1 {
		t.Errorf("Expected 1 dump, got %v", dumps)
	}

	if _, err := store.IsDumpLoaded(ctx, ""); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
