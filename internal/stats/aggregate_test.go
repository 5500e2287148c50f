package stats

import (
	"testing"
	"time"

	"github.com/blackwell-systems/insights/internal/facet"
)

func testFacets() []facet.Facet {
	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	return []facet.Facet{
		{
			SessionID: "a", Project: "web",
			GoalCategory: facet.GoalFeature, Outcome: facet.OutcomeFull,
			Helpfulness: 5, ExtractedAt: base,
		},
		{
			SessionID: "b", Project: "web",
			GoalCategory: facet.GoalDebugging, Outcome: facet.OutcomePartial,
			Helpfulness:   3,
			FrictionTypes: []facet.FrictionType{facet.FrictionToolFailure, facet.FrictionContextLoss},
			ExtractedAt:   base,
		},
		{
			SessionID: "c", Project: "api",
			GoalCategory: facet.GoalDebugging, Outcome: facet.OutcomeAbandoned,
			Helpfulness:   2,
			FrictionTypes: []facet.FrictionType{facet.FrictionToolFailure},
			ExtractedAt:   base.AddDate(0, 0, 7),
		},
	}
}

func TestCompute_Empty(t *testing.T) {
	agg := Compute(nil)
	if agg.TotalSessions != 0 {
		t.Errorf("expected 0 sessions, got %d", agg.TotalSessions)
	}
	if len(agg.Projects) != 0 {
		t.Errorf("expected no projects, got %d", len(agg.Projects))
	}
}

func TestCompute_Counts(t *testing.T) {
	agg := Compute(testFacets())

	if agg.TotalSessions != 3 {
		t.Fatalf("expected 3 sessions, got %d", agg.TotalSessions)
	}
	if agg.GoalCategories["debugging"] != 2 {
		t.Errorf("expected 2 debugging sessions, got %d", agg.GoalCategories["debugging"])
	}
	if agg.Outcomes["fully-achieved"] != 1 || agg.Outcomes["abandoned"] != 1 {
		t.Errorf("unexpected outcomes: %v", agg.Outcomes)
	}
	if agg.Helpfulness[5] != 1 || agg.Helpfulness[3] != 1 || agg.Helpfulness[2] != 1 {
		t.Errorf("unexpected helpfulness distribution: %v", agg.Helpfulness)
	}
	if agg.SessionsWithFriction != 2 {
		t.Errorf("expected 2 sessions with friction, got %d", agg.SessionsWithFriction)
	}
	// Friction occurrences count per type, not per session.
	if agg.FrictionTypes["tool-failure"] != 2 {
		t.Errorf("expected 2 tool-failure occurrences, got %d", agg.FrictionTypes["tool-failure"])
	}
}

func TestCompute_ProjectCountsSumToGlobal(t *testing.T) {
	agg := Compute(testFacets())

	sessionSum := 0
	frictionSum := 0
	goalSums := map[string]int{}
	for _, ps := range agg.Projects {
		sessionSum += ps.Sessions
		frictionSum += ps.SessionsWithFriction
		for k, v := range ps.GoalCategories {
			goalSums[k] += v
		}
	}

	if sessionSum != agg.TotalSessions {
		t.Errorf("project sessions sum %d != total %d", sessionSum, agg.TotalSessions)
	}
	if frictionSum != agg.SessionsWithFriction {
		t.Errorf("project friction sum %d != global %d", frictionSum, agg.SessionsWithFriction)
	}
	for k, v := range agg.GoalCategories {
		if goalSums[k] != v {
			t.Errorf("goal category %s: project sum %d != global %d", k, goalSums[k], v)
		}
	}
}

func TestProjectNames_Order(t *testing.T) {
	agg := Compute(testFacets())
	names := agg.ProjectNames()
	if len(names) != 2 || names[0] != "web" || names[1] != "api" {
		t.Errorf("expected [web api] (by session count), got %v", names)
	}
}
