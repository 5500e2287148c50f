// Package facet defines the per-session analysis record and its on-disk cache.
package facet

import (
	"fmt"
	"time"
)

// GoalCategory classifies what the user was trying to do in a session.
type GoalCategory string

// Goal categories the analyzer may assign.
const (
	GoalFeature     GoalCategory = "feature-implementation"
	GoalDebugging   GoalCategory = "debugging"
	GoalRefactoring GoalCategory = "refactoring"
	GoalExploration GoalCategory = "exploration"
	GoalOther       GoalCategory = "other"
)

// Outcome classifies how the session ended relative to its goal.
type Outcome string

// Outcomes the analyzer may assign.
const (
	OutcomeFull      Outcome = "fully-achieved"
	OutcomePartial   Outcome = "partially-achieved"
	OutcomeUnclear   Outcome = "unclear"
	OutcomeAbandoned Outcome = "abandoned"
)

// FrictionType tags a kind of friction observed during the session.
type FrictionType string

// Friction types the analyzer may assign.
const (
	FrictionWrongApproach    FrictionType = "wrong-approach"
	FrictionToolFailure      FrictionType = "tool-failure"
	FrictionContextLoss      FrictionType = "context-loss"
	FrictionMiscommunication FrictionType = "miscommunication"
	FrictionOther            FrictionType = "other"
)

// Helpfulness rating bounds (inclusive).
const (
	HelpfulnessMin = 1
	HelpfulnessMax = 5
)

var validGoalCategories = map[GoalCategory]bool{
	GoalFeature:     true,
	GoalDebugging:   true,
	GoalRefactoring: true,
	GoalExploration: true,
	GoalOther:       true,
}

var validOutcomes = map[Outcome]bool{
	OutcomeFull:      true,
	OutcomePartial:   true,
	OutcomeUnclear:   true,
	OutcomeAbandoned: true,
}

var validFrictionTypes = map[FrictionType]bool{
	FrictionWrongApproach:    true,
	FrictionToolFailure:      true,
	FrictionContextLoss:      true,
	FrictionMiscommunication: true,
	FrictionOther:            true,
}

// Facet is the structured summary extracted for one session. A facet is
// valid for its session only while SourceMtime matches the transcript's
// current modification time; stale facets are replaced wholesale, never
// patched.
type Facet struct {
	SessionID      string         `json:"session_id"`
	Project        string         `json:"project"`
	SourceMtime    int64          `json:"source_mtime"`
	UnderlyingGoal string         `json:"underlying_goal,omitempty"`
	GoalCategory   GoalCategory   `json:"goal_category"`
	Outcome        Outcome        `json:"outcome"`
	Helpfulness    int            `json:"helpfulness"`
	FrictionTypes  []FrictionType `json:"friction_types,omitempty"`
	Improvements   []string       `json:"improvement_opportunities,omitempty"`
	BriefSummary   string         `json:"brief_summary,omitempty"`
	StartTimestamp string         `json:"start_timestamp,omitempty"`
	EndTimestamp   string         `json:"end_timestamp,omitempty"`
	ExtractedAt    time.Time      `json:"extracted_at"`
}

// Achieved reports whether the outcome counts toward the success rate.
func (f *Facet) Achieved() bool {
	return f.Outcome == OutcomeFull || f.Outcome == OutcomePartial
}

// Validate checks that all required fields are present and all enum fields
// hold allowed values. A facet that fails validation must never be cached.
func (f *Facet) Validate() error {
	if f.SessionID == "" {
		return fmt.Errorf("facet missing session_id")
	}
	if !validGoalCategories[f.GoalCategory] {
		return fmt.Errorf("facet %s: unknown goal category %q", f.SessionID, f.GoalCategory)
	}
	if !validOutcomes[f.Outcome] {
		return fmt.Errorf("facet %s: unknown outcome %q", f.SessionID, f.Outcome)
	}
	if f.Helpfulness < HelpfulnessMin || f.Helpfulness > HelpfulnessMax {
		return fmt.Errorf("facet %s: helpfulness %d out of range [%d,%d]",
			f.SessionID, f.Helpfulness, HelpfulnessMin, HelpfulnessMax)
	}
	for _, ft := range f.FrictionTypes {
		if !validFrictionTypes[ft] {
			return fmt.Errorf("facet %s: unknown friction type %q", f.SessionID, ft)
		}
	}
	return nil
}
