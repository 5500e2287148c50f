package store

import (
	"fmt"
	"time"
)

// RunRecord is one completed pipeline run as stored in the runs table.
type RunRecord struct {
	ID            int64
	StartedAt     time.Time
	FinishedAt    time.Time
	ProjectFilter string
	SinceDays     int
	Force         bool
	Discovered    int
	Reused        int
	Analyzed      int
	Skipped       int
	TotalBatches  int
	FailedBatches int
	Version       string
}

// Duration returns the wall-clock length of the run.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// InsertRun stores a completed run and returns its row id.
func (db *DB) InsertRun(r *RunRecord) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO runs (
			started_at, finished_at, project_filter, since_days, force,
			discovered, reused, analyzed, skipped, total_batches,
			failed_batches, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.FinishedAt.UTC().Format(time.RFC3339),
		r.ProjectFilter,
		r.SinceDays,
		r.Force,
		r.Discovered,
		r.Reused,
		r.Analyzed,
		r.Skipped,
		r.TotalBatches,
		r.FailedBatches,
		r.Version,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]RunRecord, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, project_filter, since_days, force,
		       discovered, reused, analyzed, skipped, total_batches,
		       failed_batches, version
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, finished string
		if err := rows.Scan(
			&r.ID, &started, &finished, &r.ProjectFilter, &r.SinceDays,
			&r.Force, &r.Discovered, &r.Reused, &r.Analyzed, &r.Skipped,
			&r.TotalBatches, &r.FailedBatches, &r.Version,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		records = append(records, r)
	}
	return records, rows.Err()
}
