package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/blackwell-systems/insights/internal/batch"
	"github.com/blackwell-systems/insights/internal/facet"
)

// Invoker turns batches of normalized sessions into validated facets via
// the external analysis call, retrying transient failures with backoff.
type Invoker struct {
	run        Runner
	maxRetries int
	backoff    []time.Duration

	// sleep is swapped out in tests so retry paths run instantly.
	sleep func(ctx context.Context, d time.Duration) error

	// now stamps ExtractedAt; swapped out in tests for fixed clocks.
	now func() time.Time

	// Logf receives progress lines; nil disables logging.
	Logf func(format string, args ...any)
}

// NewInvoker builds an Invoker around a Runner. maxRetries is the total
// number of attempts per batch; backoff holds the waits between attempts
// (the last entry repeats if attempts outnumber entries).
func NewInvoker(run Runner, maxRetries int, backoff []time.Duration) *Invoker {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Invoker{
		run:        run,
		maxRetries: maxRetries,
		backoff:    backoff,
		sleep:      sleepCtx,
		now:        time.Now,
	}
}

// Analyze runs one external call for the batch and returns one validated
// facet per member session. Any defect (call failure, unparseable output,
// a missing member, an out-of-enum value) fails the whole batch: partial
// results are never returned, so callers can never cache garbage for some
// sessions while others succeed. Failed batches stay un-cached and become
// pending again on the next run.
func (inv *Invoker) Analyze(ctx context.Context, b batch.Batch) (map[string]*facet.Facet, error) {
	payload := BuildPrompt(b, FacetPrompt)

	var lastErr error
	for attempt := 1; attempt <= inv.maxRetries; attempt++ {
		if attempt > 1 {
			wait := inv.backoffFor(attempt - 2)
			inv.logf("retrying in %s (attempt %d/%d)", wait, attempt, inv.maxRetries)
			if err := inv.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		facets, err := inv.attempt(ctx, b, payload)
		if err == nil {
			return facets, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		inv.logf("batch attempt %d/%d failed: %v", attempt, inv.maxRetries, err)
	}

	return nil, fmt.Errorf("batch failed after %d attempts: %w", inv.maxRetries, lastErr)
}

// attempt performs a single call-parse-validate cycle.
func (inv *Invoker) attempt(ctx context.Context, b batch.Batch, payload string) (map[string]*facet.Facet, error) {
	out, err := inv.run(ctx, payload)
	if err != nil {
		return nil, err
	}

	response, err := ParseEnvelope(out)
	if err != nil {
		return nil, err
	}

	records, err := parseFacets(response)
	if err != nil {
		return nil, err
	}

	return inv.assemble(b, records)
}

// assemble matches response records to batch members and validates them.
// Every member must appear exactly once with all fields in range.
func (inv *Invoker) assemble(b batch.Batch, records []responseFacet) (map[string]*facet.Facet, error) {
	members := make(map[string]batch.Item, len(b.Items))
	for _, it := range b.Items {
		members[it.Session.ID] = it
	}

	extractedAt := inv.now().UTC()
	facets := make(map[string]*facet.Facet, len(b.Items))

	for _, rec := range records {
		it, ok := members[rec.SessionID]
		if !ok {
			// Records for unknown sessions are discarded, not fatal;
			// models sometimes echo an example id.
			continue
		}
		if _, dup := facets[rec.SessionID]; dup {
			return nil, fmt.Errorf("response contains duplicate record for session %s", rec.SessionID)
		}

		f := &facet.Facet{
			SessionID:      rec.SessionID,
			Project:        it.Session.Project,
			SourceMtime:    it.Session.ModTime.UnixNano(),
			UnderlyingGoal: rec.UnderlyingGoal,
			GoalCategory:   rec.GoalCategory,
			Outcome:        rec.Outcome,
			Helpfulness:    rec.Helpfulness,
			FrictionTypes:  rec.FrictionTypes,
			Improvements:   rec.Improvements,
			BriefSummary:   rec.BriefSummary,
			ExtractedAt:    extractedAt,
		}
		if ts := it.Transcript.StartTime; !ts.IsZero() {
			f.StartTimestamp = ts.UTC().Format(time.RFC3339)
		}
		if ts := it.Transcript.EndTime; !ts.IsZero() {
			f.EndTimestamp = ts.UTC().Format(time.RFC3339)
		}

		if err := f.Validate(); err != nil {
			return nil, err
		}
		facets[rec.SessionID] = f
	}

	if len(facets) != len(b.Items) {
		return nil, fmt.Errorf("response covered %d of %d batch sessions", len(facets), len(b.Items))
	}
	return facets, nil
}

func (inv *Invoker) backoffFor(i int) time.Duration {
	if len(inv.backoff) == 0 {
		return 0
	}
	if i >= len(inv.backoff) {
		i = len(inv.backoff) - 1
	}
	return inv.backoff[i]
}

func (inv *Invoker) logf(format string, args ...any) {
	if inv.Logf != nil {
		inv.Logf(format, args...)
	}
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
