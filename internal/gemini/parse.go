package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/blackwell-systems/insights/internal/facet"
)

// ErrEmptyResponse indicates the subprocess produced no usable output.
var ErrEmptyResponse = errors.New("empty response")

// envelope is the JSON wrapper the Gemini CLI prints in -o json mode.
type envelope struct {
	Response string `json:"response"`
}

// responseFacet is the per-session record shape the model is instructed to
// return. It carries only the analysis fields; provenance (project, mtime,
// timestamps) is stamped on by the invoker.
type responseFacet struct {
	SessionID      string               `json:"session_id"`
	UnderlyingGoal string               `json:"underlying_goal"`
	GoalCategory   facet.GoalCategory   `json:"goal_category"`
	Outcome        facet.Outcome        `json:"outcome"`
	Helpfulness    int                  `json:"helpfulness"`
	FrictionTypes  []facet.FrictionType `json:"friction_types"`
	Improvements   []string             `json:"improvement_opportunities"`
	BriefSummary   string               `json:"brief_summary"`
}

// ParseEnvelope extracts the model's response text from CLI stdout.
func ParseEnvelope(out []byte) (string, error) {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return "", ErrEmptyResponse
	}
	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return "", fmt.Errorf("decoding CLI envelope: %w", err)
	}
	if strings.TrimSpace(env.Response) == "" {
		return "", ErrEmptyResponse
	}
	return env.Response, nil
}

// parseFacets decodes the model's response text into facet records. The
// text should be a JSON array, but markdown code fences are stripped if
// present, and as a last resort individual top-level JSON objects are
// recovered by balanced-brace scanning (models occasionally interleave
// prose with the objects they were asked for).
func parseFacets(text string) ([]responseFacet, error) {
	text = StripFences(strings.TrimSpace(text))

	var records []responseFacet
	if err := json.Unmarshal([]byte(text), &records); err == nil {
		return records, nil
	}

	var single responseFacet
	if err := json.Unmarshal([]byte(text), &single); err == nil && single.SessionID != "" {
		return []responseFacet{single}, nil
	}

	records = scanObjects(text)
	if len(records) == 0 {
		return nil, fmt.Errorf("response contained no parseable facet records")
	}
	return records, nil
}

// StripFences removes a surrounding markdown code fence if present.
func StripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[1 : len(lines)-1]
	} else {
		lines = lines[1:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// scanObjects extracts top-level JSON objects by tracking brace depth.
func scanObjects(text string) []responseFacet {
	var records []responseFacet
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				var rec responseFacet
				if err := json.Unmarshal([]byte(text[start:i+1]), &rec); err == nil && rec.SessionID != "" {
					records = append(records, rec)
				}
				start = -1
			}
		}
	}
	return records
}
