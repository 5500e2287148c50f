package facet

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCache_PutGet(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "facets"))

	f := validFacet()
	if err := cache.Put(f); err != nil {
		t.Fatal(err)
	}

	got, ok := cache.Get(f.SessionID, f.SourceMtime)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.SessionID != f.SessionID || got.Outcome != f.Outcome {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestCache_StaleMtimeIsAbsent(t *testing.T) {
	cache := NewCache(t.TempDir())

	f := validFacet()
	if err := cache.Put(f); err != nil {
		t.Fatal(err)
	}

	if _, ok := cache.Get(f.SessionID, f.SourceMtime+1); ok {
		t.Error("a record with mismatched source mtime must read as absent")
	}
}

func TestCache_MissingIsAbsent(t *testing.T) {
	cache := NewCache(t.TempDir())
	if _, ok := cache.Get("never-written", 1); ok {
		t.Error("expected miss for unknown session")
	}
}

func TestCache_CorruptRecordIsAbsent(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir)
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := cache.Get("bad", 1); ok {
		t.Error("a corrupt record must read as absent")
	}

	// LoadAll skips it rather than failing.
	facets, err := cache.LoadAll(LoadFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(facets) != 0 {
		t.Errorf("expected corrupt record skipped, got %d facets", len(facets))
	}
}

func TestCache_PutOverwrites(t *testing.T) {
	cache := NewCache(t.TempDir())

	f := validFacet()
	if err := cache.Put(f); err != nil {
		t.Fatal(err)
	}

	f2 := validFacet()
	f2.SourceMtime = f.SourceMtime + 100
	f2.Outcome = OutcomeAbandoned
	if err := cache.Put(f2); err != nil {
		t.Fatal(err)
	}

	if _, ok := cache.Get(f.SessionID, f.SourceMtime); ok {
		t.Error("old mtime must no longer match after overwrite")
	}
	got, ok := cache.Get(f.SessionID, f2.SourceMtime)
	if !ok || got.Outcome != OutcomeAbandoned {
		t.Errorf("expected overwritten record, got %+v (hit=%v)", got, ok)
	}

	// No temp files may linger after successful writes.
	entries, err := os.ReadDir(cache.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one record file, found %d entries", len(entries))
	}
}

func TestCache_LoadAllMissingDir(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "never-created"))
	facets, err := cache.LoadAll(LoadFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if facets != nil {
		t.Errorf("expected empty result for missing dir, got %v", facets)
	}
}

func TestCache_LoadAllProjectFilter(t *testing.T) {
	cache := NewCache(t.TempDir())

	a := validFacet()
	a.SessionID = "a"
	a.Project = "-Users-alex-code-dotfiles"
	b := validFacet()
	b.SessionID = "b"
	b.Project = "-Users-alex-code-webapp"
	for _, f := range []*Facet{a, b} {
		if err := cache.Put(f); err != nil {
			t.Fatal(err)
		}
	}

	facets, err := cache.LoadAll(LoadFilter{Project: "dotfiles"})
	if err != nil {
		t.Fatal(err)
	}
	if len(facets) != 1 || facets[0].SessionID != "a" {
		t.Fatalf("expected only the dotfiles facet, got %v", facets)
	}
}

func TestCache_LoadAllSinceDays(t *testing.T) {
	cache := NewCache(t.TempDir())

	recent := validFacet()
	recent.SessionID = "recent"
	recent.StartTimestamp = time.Now().Add(-24 * time.Hour).UTC().Format(time.RFC3339)

	old := validFacet()
	old.SessionID = "old"
	old.StartTimestamp = time.Now().Add(-60 * 24 * time.Hour).UTC().Format(time.RFC3339)

	// Unparseable timestamps are kept, not dropped.
	odd := validFacet()
	odd.SessionID = "odd"
	odd.StartTimestamp = "sometime last spring"

	for _, f := range []*Facet{recent, old, odd} {
		if err := cache.Put(f); err != nil {
			t.Fatal(err)
		}
	}

	facets, err := cache.LoadAll(LoadFilter{SinceDays: 30})
	if err != nil {
		t.Fatal(err)
	}
	ids := map[string]bool{}
	for _, f := range facets {
		ids[f.SessionID] = true
	}
	if !ids["recent"] || !ids["odd"] || ids["old"] {
		t.Errorf("expected recent+odd, got %v", ids)
	}
}
