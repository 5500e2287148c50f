package session

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// noiseTypes are transcript entry types that carry no human-meaningful
// conversation content.
var noiseTypes = map[string]bool{
	"progress":              true,
	"file-history-snapshot": true,
	"system":                true,
	"queue-operation":       true,
}

// TruncationMarker is appended to any turn cut at the length limit so the
// analyzer knows content was removed.
const TruncationMarker = "\n[...truncated...]"

// ErrEmpty indicates a transcript with no analyzable turns.
var ErrEmpty = errors.New("transcript has no analyzable content")

// ErrMalformed indicates a transcript whose lines could not be decoded at all.
var ErrMalformed = errors.New("transcript is structurally unparseable")

// Turn is a single role-tagged text turn of a normalized transcript.
type Turn struct {
	Role string
	Text string
}

// NormalizedTranscript is the bounded, noise-free textual form of a session
// used for external analysis. It is derived transiently and never persisted.
type NormalizedTranscript struct {
	Turns      []Turn
	Text       string
	StartTime  time.Time
	EndTime    time.Time
	RawEntries int
}

// Chars returns the size of the rendered transcript in bytes, the unit the
// batch planner budgets against.
func (n *NormalizedTranscript) Chars() int { return len(n.Text) }

// transcriptEntry is the subset of a JSONL line the normalizer needs.
type transcriptEntry struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Summary   string          `json:"summary"`
	Message   json.RawMessage `json:"message"`
}

type entryMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Normalize reduces a raw session transcript to role-tagged text turns.
// Noise entry types are dropped, consecutive duplicate turns collapsed, and
// any turn longer than maxTurnChars truncated with a marker. The transform
// is deterministic: the same file content always yields the same result.
func Normalize(path string, maxTurnChars int) (*NormalizedTranscript, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()

	n := &NormalizedTranscript{}
	decodeErrors := 0

	scanner := bufio.NewScanner(f)
	// Increase buffer for long JSONL lines (up to 10MB).
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		n.RawEntries++

		var entry transcriptEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			decodeErrors++
			continue
		}

		if noiseTypes[entry.Type] {
			continue
		}

		if ts := ParseTimestamp(entry.Timestamp); !ts.IsZero() {
			if n.StartTime.IsZero() || ts.Before(n.StartTime) {
				n.StartTime = ts
			}
			if ts.After(n.EndTime) {
				n.EndTime = ts
			}
		}

		switch entry.Type {
		case "summary":
			if entry.Summary != "" {
				appendTurn(n, "SUMMARY", entry.Summary, maxTurnChars)
			}
		case "user", "assistant":
			role, texts := messageTexts(entry.Message, entry.Type)
			for _, text := range texts {
				appendTurn(n, strings.ToUpper(role), text, maxTurnChars)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	if len(n.Turns) == 0 {
		if decodeErrors > 0 {
			return nil, ErrMalformed
		}
		return nil, ErrEmpty
	}

	var sb strings.Builder
	for i, t := range n.Turns {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("[" + t.Role + "] " + t.Text)
	}
	n.Text = sb.String()

	return n, nil
}

// appendTurn adds a truncated turn, collapsing consecutive duplicates.
func appendTurn(n *NormalizedTranscript, role, text string, maxTurnChars int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if maxTurnChars > 0 && len(text) > maxTurnChars {
		text = text[:maxTurnChars] + TruncationMarker
	}
	if last := len(n.Turns) - 1; last >= 0 {
		if n.Turns[last].Role == role && n.Turns[last].Text == text {
			return
		}
	}
	n.Turns = append(n.Turns, Turn{Role: role, Text: text})
}

// messageTexts extracts the role and text parts from a user/assistant
// message. Content is either a plain string or an array of content blocks;
// only text blocks are human-meaningful (tool_use and tool_result blocks are
// call bookkeeping).
func messageTexts(raw json.RawMessage, fallbackRole string) (string, []string) {
	if raw == nil {
		return fallbackRole, nil
	}

	var msg entryMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return fallbackRole, nil
	}
	role := msg.Role
	if role == "" {
		role = fallbackRole
	}

	if msg.Content == nil {
		return role, nil
	}

	var s string
	if err := json.Unmarshal(msg.Content, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return role, nil
		}
		return role, []string{s}
	}

	var blocks []contentBlock
	if err := json.Unmarshal(msg.Content, &blocks); err != nil {
		return role, nil
	}
	var texts []string
	for _, b := range blocks {
		if b.Type == "text" && strings.TrimSpace(b.Text) != "" {
			texts = append(texts, b.Text)
		}
	}
	return role, texts
}

// ParseTimestamp parses an ISO 8601 timestamp string. It tries RFC3339Nano,
// RFC3339, and a plain datetime format without timezone. Returns the zero
// time if the string is empty or cannot be parsed by any supported format.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			t, err = time.Parse("2006-01-02T15:04:05", s)
			if err != nil {
				return time.Time{}
			}
		}
	}
	return t
}
