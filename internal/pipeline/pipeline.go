// Package pipeline orchestrates a full facet extraction run: discovery,
// cache diffing, normalization, batch planning, and bounded-parallel
// dispatch to the external analyzer.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/insights/internal/batch"
	"github.com/blackwell-systems/insights/internal/facet"
	"github.com/blackwell-systems/insights/internal/gemini"
	"github.com/blackwell-systems/insights/internal/session"
)

// Options configures one pipeline run.
type Options struct {
	SessionsDir string
	Filters     session.Filters

	// Force bypasses cache reads for this run; every discovered session is
	// re-analyzed and overwritten. Cached records are never deleted.
	Force bool

	// DryRun stops after planning and reports the exact batch plan without
	// issuing any external call.
	DryRun bool

	// Concurrency bounds parallel external calls. Values below 1 mean
	// serial dispatch.
	Concurrency int

	CharBudget   int
	MaxPerBatch  int
	MaxTurnChars int

	// Logf receives progress lines; nil disables logging.
	Logf func(format string, args ...any)
}

// ProjectPlan is the per-project discovery/pending breakdown exposed for
// dry-run and listing surfaces.
type ProjectPlan struct {
	Discovered int `json:"discovered"`
	Pending    int `json:"pending"`
}

// Result is the end-of-run summary. Per-session and per-batch failures are
// counted here rather than aborting the run; only storage-level errors make
// Run itself return an error.
type Result struct {
	Discovered    int `json:"discovered"`
	Reused        int `json:"reused"`
	Pending       int `json:"pending"`
	Skipped       int `json:"skipped"`
	Analyzed      int `json:"analyzed"`
	TotalBatches  int `json:"total_batches"`
	FailedBatches int `json:"failed_batches"`

	Projects map[string]*ProjectPlan `json:"projects"`

	// Plan holds the planned batches; populated for every run so a dry run
	// can display exactly what a real run would dispatch.
	Plan []batch.Batch `json:"-"`

	DiscoveryErrors []session.DiscoveryError `json:"-"`
}

// AllBatchesFailed reports whether every planned batch failed, the one
// non-fatal condition that still warrants a non-zero exit.
func (r *Result) AllBatchesFailed() bool {
	return r.TotalBatches > 0 && r.FailedBatches == r.TotalBatches
}

// Run executes the pipeline. Batches are dispatched with bounded
// parallelism; each batch's facets are written only after that batch's own
// call returns, and batches are disjoint by construction, so no session key
// is ever written concurrently. Cancellation stops new batches; records
// already written stay valid and abandoned batches are simply re-pending on
// the next run.
func Run(ctx context.Context, opts Options, cache *facet.Cache, inv *gemini.Invoker) (*Result, error) {
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	sessions, discErrs, err := session.Discover(opts.SessionsDir, opts.Filters)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Discovered:      len(sessions),
		Projects:        make(map[string]*ProjectPlan),
		DiscoveryErrors: discErrs,
	}
	for _, e := range discErrs {
		logf("discovery: %v", &e)
	}

	// Diff against the cache. Under --force the cache is not consulted at
	// all: stale-or-fresh, every session is pending.
	var pending []session.Session
	for _, s := range sessions {
		plan := res.Projects[s.Project]
		if plan == nil {
			plan = &ProjectPlan{}
			res.Projects[s.Project] = plan
		}
		plan.Discovered++

		if !opts.Force {
			if _, ok := cache.Get(s.ID, s.ModTime.UnixNano()); ok {
				res.Reused++
				continue
			}
		}
		plan.Pending++
		pending = append(pending, s)
	}
	res.Pending = len(pending)

	// Normalize pending transcripts. Sessions that are empty or
	// structurally unparseable are skipped for this run, neither cached
	// as failures nor fabricated.
	var items []batch.Item
	for _, s := range pending {
		n, err := session.Normalize(s.Path, opts.MaxTurnChars)
		if err != nil {
			res.Skipped++
			logf("skipping %s: %v", s.ID, err)
			continue
		}
		items = append(items, batch.Item{Session: s, Transcript: n})
	}

	res.Plan = batch.Plan(items, opts.CharBudget, opts.MaxPerBatch)
	res.TotalBatches = len(res.Plan)

	if opts.DryRun || res.TotalBatches == 0 {
		return res, nil
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, b := range res.Plan {
		i, b := i, b
		g.Go(func() error {
			if gctx.Err() != nil {
				// Abort stops issuing new batches; this one was never
				// started, so it stays pending for the next run.
				return nil
			}

			logf("batch %d/%d: %d sessions, %d chars", i+1, res.TotalBatches, len(b.Items), b.Chars())

			facets, err := inv.Analyze(gctx, b)
			if err != nil {
				mu.Lock()
				res.FailedBatches++
				mu.Unlock()
				logf("batch %d/%d failed: %v", i+1, res.TotalBatches, err)
				return nil
			}

			// Write only after this batch's own call returned, and only
			// with a complete result set. A cache write failure is fatal
			// for the run.
			for _, it := range b.Items {
				if err := cache.Put(facets[it.Session.ID]); err != nil {
					return fmt.Errorf("caching facet: %w", err)
				}
			}

			mu.Lock()
			res.Analyzed += len(b.Items)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}
