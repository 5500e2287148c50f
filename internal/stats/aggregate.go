// Package stats reduces cached facets into aggregate and temporal statistics.
package stats

import (
	"sort"

	"github.com/blackwell-systems/insights/internal/facet"
)

// ProjectStats is the per-project slice of the aggregate counts.
type ProjectStats struct {
	Sessions             int            `json:"sessions"`
	GoalCategories       map[string]int `json:"goal_categories"`
	Outcomes             map[string]int `json:"outcomes"`
	FrictionTypes        map[string]int `json:"friction_types"`
	SessionsWithFriction int            `json:"sessions_with_friction"`
}

// Aggregate holds global counts over the current valid facet set plus the
// same counts broken down per project. For every dimension the per-project
// counts sum to the global count.
type Aggregate struct {
	TotalSessions        int                      `json:"total_sessions"`
	GoalCategories       map[string]int           `json:"goal_categories"`
	Outcomes             map[string]int           `json:"outcomes"`
	FrictionTypes        map[string]int           `json:"friction_types"`
	Helpfulness          map[int]int              `json:"helpfulness"`
	SessionsWithFriction int                      `json:"sessions_with_friction"`
	Projects             map[string]*ProjectStats `json:"projects"`
}

// Compute is a pure reduction over the facet set; it holds no state and
// reads nothing but its argument, so it can run under a dry run and be
// property-tested without any external dependency.
func Compute(facets []facet.Facet) Aggregate {
	agg := Aggregate{
		TotalSessions:  len(facets),
		GoalCategories: map[string]int{},
		Outcomes:       map[string]int{},
		FrictionTypes:  map[string]int{},
		Helpfulness:    map[int]int{},
		Projects:       map[string]*ProjectStats{},
	}

	for i := range facets {
		f := &facets[i]

		project := f.Project
		if project == "" {
			project = "unknown"
		}
		ps, ok := agg.Projects[project]
		if !ok {
			ps = &ProjectStats{
				GoalCategories: map[string]int{},
				Outcomes:       map[string]int{},
				FrictionTypes:  map[string]int{},
			}
			agg.Projects[project] = ps
		}
		ps.Sessions++

		agg.GoalCategories[string(f.GoalCategory)]++
		ps.GoalCategories[string(f.GoalCategory)]++

		agg.Outcomes[string(f.Outcome)]++
		ps.Outcomes[string(f.Outcome)]++

		agg.Helpfulness[f.Helpfulness]++

		if len(f.FrictionTypes) > 0 {
			agg.SessionsWithFriction++
			ps.SessionsWithFriction++
		}
		for _, ft := range f.FrictionTypes {
			agg.FrictionTypes[string(ft)]++
			ps.FrictionTypes[string(ft)]++
		}
	}

	return agg
}

// ProjectNames returns the project keys sorted by session count descending,
// ties broken by name, for stable rendering.
func (a *Aggregate) ProjectNames() []string {
	names := make([]string, 0, len(a.Projects))
	for name := range a.Projects {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := a.Projects[names[i]], a.Projects[names[j]]
		if pi.Sessions != pj.Sessions {
			return pi.Sessions > pj.Sessions
		}
		return names[i] < names[j]
	})
	return names
}
