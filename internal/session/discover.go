// Package session discovers and normalizes Claude Code session transcripts.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Session is the per-transcript metadata captured at discovery time.
// Sessions are re-discovered fresh on every run and never mutated.
type Session struct {
	ID      string
	Project string
	Path    string
	ModTime time.Time
	Size    int64
}

// Filters narrows discovery to a subset of the corpus.
type Filters struct {
	// Project keeps only sessions whose project directory name contains
	// this substring. Empty means all projects.
	Project string

	// SinceDays keeps only sessions modified within the last N days.
	// Zero means no time filter.
	SinceDays int

	// Limit caps the number of sessions returned, applied after all other
	// filters. Zero means no cap.
	Limit int

	// MinBytes skips transcript files smaller than this. Zero applies the
	// default of 100 bytes (anything smaller holds no conversation).
	MinBytes int64
}

// DiscoveryError records a single unreadable session file. Discovery never
// aborts for one bad file; callers surface these in the run summary.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

const defaultMinBytes = 100

// Discover enumerates session JSONL files under root, one subdirectory per
// project. A missing root is fatal; anything wrong with an individual file
// is recorded and skipped. Sessions are returned newest-first (mtime
// descending, then project, then session id) so a limit always selects the
// same, most recent, subset.
func Discover(root string, f Filters) ([]Session, []DiscoveryError, error) {
	projectDirs, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("reading sessions root %s: %w", root, err)
	}

	minBytes := f.MinBytes
	if minBytes == 0 {
		minBytes = defaultMinBytes
	}

	var cutoff time.Time
	if f.SinceDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -f.SinceDays)
	}

	var sessions []Session
	var discErrs []DiscoveryError

	for _, projEntry := range projectDirs {
		if !projEntry.IsDir() {
			continue
		}
		project := projEntry.Name()

		if f.Project != "" && !strings.Contains(project, f.Project) {
			continue
		}

		dirPath := filepath.Join(root, project)
		files, err := os.ReadDir(dirPath)
		if err != nil {
			discErrs = append(discErrs, DiscoveryError{Path: dirPath, Err: err})
			continue
		}

		for _, fe := range files {
			// Only top-level .jsonl files; subdirectories hold subagent
			// transcripts, which are not sessions of their own.
			if fe.IsDir() || !strings.HasSuffix(fe.Name(), ".jsonl") {
				continue
			}

			path := filepath.Join(dirPath, fe.Name())
			info, err := fe.Info()
			if err != nil {
				discErrs = append(discErrs, DiscoveryError{Path: path, Err: err})
				continue
			}

			if info.Size() < minBytes {
				continue
			}
			if !cutoff.IsZero() && info.ModTime().Before(cutoff) {
				continue
			}

			sessions = append(sessions, Session{
				ID:      strings.TrimSuffix(fe.Name(), ".jsonl"),
				Project: project,
				Path:    path,
				ModTime: info.ModTime(),
				Size:    info.Size(),
			})
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.After(b.ModTime)
		}
		if a.Project != b.Project {
			return a.Project < b.Project
		}
		return a.ID < b.ID
	})

	if f.Limit > 0 && len(sessions) > f.Limit {
		sessions = sessions[:f.Limit]
	}

	return sessions, discErrs, nil
}
