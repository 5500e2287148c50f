// Package report renders cached facets into a standalone HTML coaching
// report via the external analysis model.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackwell-systems/insights/internal/facet"
	"github.com/blackwell-systems/insights/internal/gemini"
	"github.com/blackwell-systems/insights/internal/stats"
)

// latestName is the stable symlink refreshed after every generation.
const latestName = "report_latest.html"

// Options configures one report generation.
type Options struct {
	// ProjectSlug, when set, tells the model the facets are pre-filtered to
	// one project and names the output file accordingly.
	ProjectSlug string

	// Logf receives progress lines; nil disables logging.
	Logf func(format string, args ...any)

	// Now is swapped out in tests for fixed output names; nil means time.Now.
	Now func() time.Time
}

// compactFacet is the trimmed per-session record fed to the report prompt.
// Empty fields are omitted to keep the payload small.
type compactFacet struct {
	SessionID      string   `json:"session_id,omitempty"`
	Project        string   `json:"project,omitempty"`
	UnderlyingGoal string   `json:"underlying_goal,omitempty"`
	GoalCategory   string   `json:"goal_category,omitempty"`
	Outcome        string   `json:"outcome,omitempty"`
	Helpfulness    int      `json:"helpfulness,omitempty"`
	FrictionTypes  []string `json:"friction_types,omitempty"`
	Improvements   []string `json:"improvement_opportunities,omitempty"`
	BriefSummary   string   `json:"brief_summary,omitempty"`
	StartTimestamp string   `json:"start_timestamp,omitempty"`
	EndTimestamp   string   `json:"end_timestamp,omitempty"`
}

// Generate computes statistics over the facet set, asks the model for an
// HTML report, and writes it to outputDir under a timestamped name, updating
// the report_latest.html symlink. It returns the path of the written report.
func Generate(ctx context.Context, run gemini.Runner, facets []facet.Facet, outputDir string, opts Options) (string, error) {
	if len(facets) == 0 {
		return "", fmt.Errorf("no facets to report on")
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	payload, err := buildPayload(facets, opts.ProjectSlug)
	if err != nil {
		return "", err
	}
	logf("generating report (%dK chars input)", len(payload)/1000)

	out, err := run(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("generating report: %w", err)
	}
	html, err := gemini.ParseEnvelope(out)
	if err != nil {
		return "", fmt.Errorf("generating report: %w", err)
	}
	html = gemini.StripFences(strings.TrimSpace(html))

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("report_%s.html", now().UTC().Format("20060102_150405"))
	if opts.ProjectSlug != "" {
		slug := strings.ToLower(strings.NewReplacer("/", "-", " ", "-").Replace(opts.ProjectSlug))
		name = fmt.Sprintf("report_%s_%s.html", slug, now().UTC().Format("20060102_150405"))
	}

	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	// Best-effort symlink refresh; some filesystems refuse symlinks.
	latest := filepath.Join(outputDir, latestName)
	_ = os.Remove(latest)
	if err := os.Symlink(name, latest); err != nil {
		logf("could not update %s: %v", latestName, err)
	}

	return path, nil
}

// buildPayload assembles the full prompt: instructions, aggregate stats,
// temporal data, and the compact facet list.
func buildPayload(facets []facet.Facet, projectSlug string) (string, error) {
	agg := stats.Compute(facets)
	temporal := stats.Temporal(facets)

	compact := make([]compactFacet, 0, len(facets))
	for i := range facets {
		f := &facets[i]
		frictions := make([]string, 0, len(f.FrictionTypes))
		for _, ft := range f.FrictionTypes {
			frictions = append(frictions, string(ft))
		}
		compact = append(compact, compactFacet{
			SessionID:      f.SessionID,
			Project:        f.Project,
			UnderlyingGoal: f.UnderlyingGoal,
			GoalCategory:   string(f.GoalCategory),
			Outcome:        string(f.Outcome),
			Helpfulness:    f.Helpfulness,
			FrictionTypes:  frictions,
			Improvements:   f.Improvements,
			BriefSummary:   f.BriefSummary,
			StartTimestamp: f.StartTimestamp,
			EndTimestamp:   f.EndTimestamp,
		})
	}

	aggJSON, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return "", err
	}
	temporalJSON, err := json.MarshalIndent(temporal, "", "  ")
	if err != nil {
		return "", err
	}
	facetsJSON, err := json.Marshal(compact)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(ReportPrompt)
	if projectSlug != "" {
		sb.WriteString("\n\nNOTE: These facets are filtered to a single project. ")
		sb.WriteString("Tailor the report specifically to this project rather than ")
		sb.WriteString("cross-project comparisons.\n")
	}
	fmt.Fprintf(&sb, "\n\n## AGGREGATE STATS\n```json\n%s\n```\n\n", aggJSON)
	fmt.Fprintf(&sb, "## TEMPORAL DATA\n```json\n%s\n```\n\n", temporalJSON)
	fmt.Fprintf(&sb, "## ALL FACETS (%d sessions)\n```json\n%s\n```\n", len(compact), facetsJSON)
	return sb.String(), nil
}
