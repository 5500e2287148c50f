package store

import (
	"path/filepath"
	"testing"
	"time"
)

func testRun(started time.Time) *RunRecord {
	return &RunRecord{
		StartedAt:     started,
		FinishedAt:    started.Add(90 * time.Second),
		ProjectFilter: "web",
		SinceDays:     30,
		Discovered:    10,
		Reused:        6,
		Analyzed:      3,
		Skipped:       1,
		TotalBatches:  2,
		FailedBatches: 0,
		Version:       "test",
	}
}

func TestInsertAndListRuns(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := testRun(base.Add(time.Duration(i) * time.Hour))
		r.Analyzed = i
		if _, err := db.InsertRun(r); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}

	// Newest first.
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Errorf("expected newest-first ordering, got %v then %v",
			runs[0].StartedAt, runs[1].StartedAt)
	}
	if runs[0].Analyzed != 2 {
		t.Errorf("expected latest run analyzed=2, got %d", runs[0].Analyzed)
	}
	if runs[0].ProjectFilter != "web" || runs[0].SinceDays != 30 {
		t.Errorf("filter fields did not round-trip: %+v", runs[0])
	}
	if runs[0].Duration() != 90*time.Second {
		t.Errorf("expected 90s duration, got %v", runs[0].Duration())
	}
}

func TestListRuns_Limit(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := db.InsertRun(testRun(base.Add(time.Duration(i) * time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected limit respected, got %d runs", len(runs))
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "insights.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.InsertRun(testRun(time.Now().UTC())); err != nil {
		t.Fatal(err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		t.Fatalf("re-running migrations must be a no-op, got %v", err)
	}

	var version int
	if err := db.Conn().QueryRow("SELECT version FROM schema_version").Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != currentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", currentSchemaVersion, version)
	}
}
