package batch

import (
	"fmt"
	"strings"
	"testing"

	"github.com/blackwell-systems/insights/internal/session"
)

// item builds a planner item with a transcript of exactly n chars.
func item(id string, n int) Item {
	return Item{
		Session:    session.Session{ID: id},
		Transcript: &session.NormalizedTranscript{Text: strings.Repeat("x", n)},
	}
}

func TestPlan_Empty(t *testing.T) {
	if got := Plan(nil, 1000, 5); len(got) != 0 {
		t.Errorf("expected no batches, got %d", len(got))
	}
}

func TestPlan_CharBudget(t *testing.T) {
	items := []Item{item("a", 400), item("b", 400), item("c", 400)}
	batches := Plan(items, 1000, 10)

	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if len(batches[0].Items) != 2 || len(batches[1].Items) != 1 {
		t.Errorf("expected split 2+1, got %d+%d", len(batches[0].Items), len(batches[1].Items))
	}
	for i, b := range batches {
		if b.Chars() > 1000 {
			t.Errorf("batch %d exceeds budget: %d chars", i, b.Chars())
		}
	}
}

func TestPlan_SessionCap(t *testing.T) {
	var items []Item
	for i := 0; i < 7; i++ {
		items = append(items, item(fmt.Sprintf("s%d", i), 10))
	}
	batches := Plan(items, 1000, 3)

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	for i, b := range batches {
		if len(b.Items) > 3 {
			t.Errorf("batch %d exceeds session cap: %d items", i, len(b.Items))
		}
	}
}

func TestPlan_OversizedSingleton(t *testing.T) {
	items := []Item{item("a", 100), item("huge", 5000), item("b", 100)}
	batches := Plan(items, 1000, 10)

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if ids := batches[1].SessionIDs(); len(ids) != 1 || ids[0] != "huge" {
		t.Errorf("expected the oversized item isolated, got %v", ids)
	}
}

func TestPlan_Disjoint(t *testing.T) {
	var items []Item
	for i := 0; i < 20; i++ {
		items = append(items, item(fmt.Sprintf("s%d", i), 100+i*37))
	}
	batches := Plan(items, 500, 4)

	seen := map[string]bool{}
	total := 0
	for _, b := range batches {
		for _, id := range b.SessionIDs() {
			if seen[id] {
				t.Fatalf("session %s appears in more than one batch", id)
			}
			seen[id] = true
			total++
		}
	}
	if total != len(items) {
		t.Errorf("expected every item planned exactly once, got %d of %d", total, len(items))
	}
}

func TestPlan_Deterministic(t *testing.T) {
	var items []Item
	for i := 0; i < 10; i++ {
		items = append(items, item(fmt.Sprintf("s%d", i), 200+i*13))
	}

	first := Plan(items, 700, 3)
	second := Plan(items, 700, 3)

	if len(first) != len(second) {
		t.Fatalf("plan lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a := strings.Join(first[i].SessionIDs(), ",")
		b := strings.Join(second[i].SessionIDs(), ",")
		if a != b {
			t.Errorf("batch %d differs: %s vs %s", i, a, b)
		}
	}
}
