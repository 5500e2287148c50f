// Package batch groups pending sessions into bounded batches for analysis.
package batch

import (
	"github.com/blackwell-systems/insights/internal/session"
)

// Item pairs a pending session with its normalized transcript.
type Item struct {
	Session    session.Session
	Transcript *session.NormalizedTranscript
}

// Chars returns the item's normalized size.
func (it Item) Chars() int { return it.Transcript.Chars() }

// Batch is an ephemeral group of sessions submitted together in one
// external analysis call. Batches are disjoint in session membership.
type Batch struct {
	Items []Item
}

// Chars returns the sum of normalized sizes across the batch.
func (b Batch) Chars() int {
	total := 0
	for _, it := range b.Items {
		total += it.Chars()
	}
	return total
}

// SessionIDs returns the ids of the batch members in order.
func (b Batch) SessionIDs() []string {
	ids := make([]string, len(b.Items))
	for i, it := range b.Items {
		ids[i] = it.Session.ID
	}
	return ids
}

// Plan greedily groups items (in the order given) into batches bounded by a
// character budget and a per-batch session cap. An item whose size alone
// exceeds the budget still forms its own singleton batch; it is never
// dropped. Planning is pure: the same inputs always produce the same plan,
// which is what lets a dry run report the exact batches without any call.
func Plan(items []Item, charBudget, maxSessions int) []Batch {
	var batches []Batch
	var current Batch
	currentChars := 0

	flush := func() {
		if len(current.Items) > 0 {
			batches = append(batches, current)
			current = Batch{}
			currentChars = 0
		}
	}

	for _, it := range items {
		size := it.Chars()

		// An oversized item gets a batch of its own.
		if size > charBudget {
			flush()
			batches = append(batches, Batch{Items: []Item{it}})
			continue
		}

		if len(current.Items) >= maxSessions || currentChars+size > charBudget {
			flush()
		}
		current.Items = append(current.Items, it)
		currentChars += size
	}
	flush()

	return batches
}
