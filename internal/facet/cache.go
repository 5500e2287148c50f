package facet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Cache persists one facet record per session id as a JSON file in a single
// directory. It is the only component that writes or deletes facet records;
// everything else reads through it.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir. The directory is created lazily
// on the first Put.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// LoadFilter narrows LoadAll to a subset of cached facets. Filtering happens
// at load time; records are always written unfiltered.
type LoadFilter struct {
	// Project keeps facets whose project name contains this substring.
	Project string

	// SinceDays keeps facets whose session started within the last N days.
	// Facets with missing or unparseable start timestamps are kept.
	SinceDays int
}

// Get returns the cached facet for a session, or absent. A record that does
// not exist, cannot be parsed, or whose stored source mtime differs from
// sourceMtime is absent. Staleness and missingness are indistinguishable to
// callers by design.
func (c *Cache) Get(sessionID string, sourceMtime int64) (*Facet, bool) {
	data, err := os.ReadFile(c.recordPath(sessionID))
	if err != nil {
		return nil, false
	}
	var f Facet
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, false
	}
	if f.SourceMtime != sourceMtime {
		return nil, false
	}
	return &f, true
}

// Put atomically overwrites the record for f.SessionID. The record is
// written to a temp file in the same directory and renamed into place, so a
// concurrent reader never observes a torn record.
func (c *Cache) Put(f *Facet) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating facet cache dir: %w", err)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding facet %s: %w", f.SessionID, err)
	}

	tmp, err := os.CreateTemp(c.dir, f.SessionID+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp record: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing facet %s: %w", f.SessionID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing facet %s: %w", f.SessionID, err)
	}

	if err := os.Rename(tmpPath, c.recordPath(f.SessionID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("committing facet %s: %w", f.SessionID, err)
	}
	return nil
}

// LoadAll reads every cached facet record, applying the filter at load time.
// Unreadable or unparseable records are skipped. A missing cache directory
// yields an empty result, not an error.
func (c *Cache) LoadAll(filter LoadFilter) ([]Facet, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading facet cache dir: %w", err)
	}

	var cutoff time.Time
	if filter.SinceDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -filter.SinceDays)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var facets []Facet
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(c.dir, name))
		if err != nil {
			continue
		}
		var f Facet
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}

		if filter.Project != "" && !strings.Contains(f.Project, filter.Project) {
			continue
		}
		if !cutoff.IsZero() && f.StartTimestamp != "" {
			// Keep facets with unparseable timestamps.
			if ts, err := time.Parse(time.RFC3339, f.StartTimestamp); err == nil && ts.Before(cutoff) {
				continue
			}
		}

		facets = append(facets, f)
	}
	return facets, nil
}

func (c *Cache) recordPath(sessionID string) string {
	return filepath.Join(c.dir, sessionID+".json")
}
