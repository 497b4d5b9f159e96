package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"brandforge/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleEntry(createdAt time.Time) Entry {
	analysis := &domain.BrandAnalysis{
		Colors:    []string{"red"},
		Mood:      "Energetic",
		Subject:   "red ceramic mug",
		BrandName: "Mug Co",
	}
	assets := []domain.Asset{{
		ID:          uuid.NewString(),
		Kind:        domain.AssetKindImage,
		AspectRatio: domain.AspectSquare,
		Status:      domain.AssetStatusCompleted,
		URL:         "/blobs/a.png",
	}}
	adCopy := &domain.AdCopy{Headline: "Mornings, Upgraded", CTA: "Shop now"}
	entry := Snapshot(analysis, assets, adCopy)
	entry.CreatedAt = createdAt
	return entry
}

func TestSnapshot(t *testing.T) {
	entry := sampleEntry(time.Now().UTC())
	if entry.ID == "" {
		t.Fatalf("snapshot has no id")
	}
	if entry.BrandName != "Mug Co" || entry.Subject != "red ceramic mug" {
		t.Fatalf("snapshot brand fields = %q / %q", entry.BrandName, entry.Subject)
	}
	if entry.Headline != "Mornings, Upgraded" {
		t.Fatalf("headline = %q", entry.Headline)
	}
	if entry.ThumbnailURL != "/blobs/a.png" {
		t.Fatalf("thumbnail = %q, want first asset url", entry.ThumbnailURL)
	}
	if entry.AssetCount != 1 {
		t.Fatalf("asset count = %d", entry.AssetCount)
	}
}

func TestSnapshotSkipsAssetsWithoutURL(t *testing.T) {
	assets := []domain.Asset{
		{ID: "a", Status: domain.AssetStatusFailed},
		{ID: "b", Status: domain.AssetStatusCompleted, URL: "/blobs/b.png"},
	}
	entry := Snapshot(nil, assets, nil)
	if entry.ThumbnailURL != "/blobs/b.png" {
		t.Fatalf("thumbnail = %q, want first non-empty url", entry.ThumbnailURL)
	}
}

func TestAppendAndGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := sampleEntry(time.Now().UTC())
	if err := store.Append(ctx, entry); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Subject != entry.Subject || got.Headline != entry.Headline {
		t.Fatalf("entry = %+v", got)
	}
	if got.Analysis == nil || got.Analysis.Mood != "Energetic" {
		t.Fatalf("analysis did not round-trip: %+v", got.Analysis)
	}
	if got.AdCopy == nil || got.AdCopy.CTA != "Shop now" {
		t.Fatalf("ad copy did not round-trip: %+v", got.AdCopy)
	}
	if len(got.Assets) != 1 || got.Assets[0].URL != "/blobs/a.png" {
		t.Fatalf("assets did not round-trip: %+v", got.Assets)
	}
}

func TestAppendWithoutOptionalPayloads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := Snapshot(nil, nil, nil)
	if err := store.Append(ctx, entry); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := store.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Analysis != nil || got.AdCopy != nil || len(got.Assets) != 0 {
		t.Fatalf("optional payloads not empty: %+v", got)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		entry := sampleEntry(base.Add(time.Duration(i) * time.Minute))
		ids = append(ids, entry.ID)
		if err := store.Append(ctx, entry); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].ID != ids[2] || entries[2].ID != ids[0] {
		t.Fatalf("entries not newest-first: %v", []string{entries[0].ID, entries[1].ID, entries[2].ID})
	}
}

func TestAppendPrunesToCap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var oldest string
	for i := 0; i < MaxEntries+5; i++ {
		entry := Snapshot(nil, nil, nil)
		entry.CreatedAt = base.Add(time.Duration(i) * time.Second)
		entry.Subject = fmt.Sprintf("entry %d", i)
		if i == 0 {
			oldest = entry.ID
		}
		if err := store.Append(ctx, entry); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != MaxEntries {
		t.Fatalf("entries = %d, want cap %d", len(entries), MaxEntries)
	}
	if _, err := store.Get(ctx, oldest); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("oldest entry survived pruning: %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := sampleEntry(time.Now().UTC())
	if err := store.Append(ctx, entry); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Delete(ctx, entry.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, entry.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete missing = %v, want ErrNotFound", err)
	}
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Append(ctx, sampleEntry(time.Now().UTC())); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %d, want 0 after clear", len(entries))
	}
}
