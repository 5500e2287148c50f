package stats

import (
	"fmt"
	"sort"

	"github.com/blackwell-systems/insights/internal/facet"
)

// WeekBucket aggregates the facets extracted during one ISO calendar week
// (Monday-start). Weeks with no sessions are omitted entirely, never
// synthesized as empty.
type WeekBucket struct {
	// Week is the ISO week label, e.g. "2026-W08".
	Week string `json:"week"`

	Sessions int `json:"sessions"`

	// SuccessRate is the fraction of fully or partially achieved outcomes
	// in this bucket.
	SuccessRate float64 `json:"success_rate"`

	// ActiveProjects counts distinct projects seen this week.
	ActiveProjects int `json:"active_projects"`
}

// Temporal buckets facets by the ISO week of their extraction timestamp and
// returns the buckets oldest first. Like Compute, it is a pure reduction.
func Temporal(facets []facet.Facet) []WeekBucket {
	type accum struct {
		sessions int
		achieved int
		projects map[string]bool
	}

	weekly := make(map[[2]int]*accum)

	for i := range facets {
		f := &facets[i]
		if f.ExtractedAt.IsZero() {
			continue
		}
		year, week := f.ExtractedAt.ISOWeek()
		key := [2]int{year, week}

		a, ok := weekly[key]
		if !ok {
			a = &accum{projects: make(map[string]bool)}
			weekly[key] = a
		}
		a.sessions++
		if f.Achieved() {
			a.achieved++
		}
		project := f.Project
		if project == "" {
			project = "unknown"
		}
		a.projects[project] = true
	}

	keys := make([][2]int, 0, len(weekly))
	for k := range weekly {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	buckets := make([]WeekBucket, 0, len(keys))
	for _, k := range keys {
		a := weekly[k]
		rate := 0.0
		if a.sessions > 0 {
			rate = float64(a.achieved) / float64(a.sessions)
		}
		buckets = append(buckets, WeekBucket{
			Week:           fmt.Sprintf("%d-W%02d", k[0], k[1]),
			Sessions:       a.sessions,
			SuccessRate:    rate,
			ActiveProjects: len(a.projects),
		})
	}
	return buckets
}
