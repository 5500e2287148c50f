package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNormalize_Basic(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"summary","summary":"Fix the flaky test"}`,
		`{"type":"user","timestamp":"2026-02-10T09:00:00Z","message":{"role":"user","content":"why does this test flake?"}}`,
		`{"type":"progress","timestamp":"2026-02-10T09:00:05Z"}`,
		`{"type":"assistant","timestamp":"2026-02-10T09:01:00Z","message":{"role":"assistant","content":[{"type":"text","text":"It races on the shared port."},{"type":"tool_use","id":"t1"}]}}`,
		`{"type":"file-history-snapshot"}`,
	)

	n, err := Normalize(path, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(n.Turns) != 3 {
		t.Fatalf("expected 3 turns, got %d: %v", len(n.Turns), n.Turns)
	}
	if n.Turns[0].Role != "SUMMARY" {
		t.Errorf("expected summary turn first, got %s", n.Turns[0].Role)
	}
	if n.Turns[1].Role != "USER" || n.Turns[2].Role != "ASSISTANT" {
		t.Errorf("unexpected roles: %s, %s", n.Turns[1].Role, n.Turns[2].Role)
	}
	if strings.Contains(n.Text, "tool_use") {
		t.Error("tool_use blocks must not leak into normalized text")
	}
	if !strings.Contains(n.Text, "[USER] why does this test flake?") {
		t.Errorf("expected role-tagged line, got %q", n.Text)
	}
	if n.RawEntries != 5 {
		t.Errorf("expected 5 raw entries, got %d", n.RawEntries)
	}
}

func TestNormalize_Timestamps(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"user","timestamp":"2026-02-10T09:30:00Z","message":{"role":"user","content":"later"}}`,
		`{"type":"user","timestamp":"2026-02-10T09:00:00Z","message":{"role":"user","content":"earlier"}}`,
	)

	n, err := Normalize(path, 0)
	if err != nil {
		t.Fatal(err)
	}

	wantStart := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	if !n.StartTime.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, n.StartTime)
	}
	if !n.EndTime.Equal(wantEnd) {
		t.Errorf("expected end %v, got %v", wantEnd, n.EndTime)
	}
}

func TestNormalize_CollapsesConsecutiveDuplicates(t *testing.T) {
	line := `{"type":"user","message":{"role":"user","content":"retry please"}}`
	path := writeTranscript(t, line, line, line,
		`{"type":"user","message":{"role":"user","content":"different"}}`,
	)

	n, err := Normalize(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(n.Turns) != 2 {
		t.Fatalf("expected duplicates collapsed to 2 turns, got %d", len(n.Turns))
	}
}

func TestNormalize_TruncatesLongTurns(t *testing.T) {
	long := strings.Repeat("x", 500)
	path := writeTranscript(t,
		`{"type":"user","message":{"role":"user","content":"`+long+`"}}`,
	)

	n, err := Normalize(path, 100)
	if err != nil {
		t.Fatal(err)
	}
	turn := n.Turns[0].Text
	if !strings.HasSuffix(turn, TruncationMarker) {
		t.Errorf("expected truncation marker, got %q", turn[len(turn)-30:])
	}
	if len(turn) != 100+len(TruncationMarker) {
		t.Errorf("expected %d chars, got %d", 100+len(TruncationMarker), len(turn))
	}
}

func TestNormalize_OnlyNoiseIsEmpty(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"progress"}`,
		`{"type":"system"}`,
		`{"type":"queue-operation"}`,
	)

	_, err := Normalize(path, 0)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestNormalize_GarbageIsMalformed(t *testing.T) {
	path := writeTranscript(t,
		`this is not json`,
		`neither is this {`,
	)

	_, err := Normalize(path, 0)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"user","timestamp":"2026-02-10T09:00:00Z","message":{"role":"user","content":"hello"}}`,
		`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"hi"}]}}`,
	)

	first, err := Normalize(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Normalize(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if first.Text != second.Text {
		t.Error("normalization must be deterministic for identical input")
	}
	if first.Chars() != len(first.Text) {
		t.Errorf("Chars() = %d, want %d", first.Chars(), len(first.Text))
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		zero bool
	}{
		{"2026-02-10T09:00:00.123456789Z", false},
		{"2026-02-10T09:00:00Z", false},
		{"2026-02-10T09:00:00", false},
		{"not-a-timestamp", true},
		{"", true},
	}
	for _, tc := range cases {
		got := ParseTimestamp(tc.in)
		if got.IsZero() != tc.zero {
			t.Errorf("ParseTimestamp(%q): zero=%v, want %v", tc.in, got.IsZero(), tc.zero)
		}
	}
}
