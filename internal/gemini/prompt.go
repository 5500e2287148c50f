package gemini

import (
	"strings"

	"github.com/blackwell-systems/insights/internal/batch"
)

// sessionBoundary frames each session inside the batch payload. The id
// after the marker is what the model must echo back as session_id.
const sessionBoundary = "===SESSION_BOUNDARY::"

// FacetPrompt is the fixed instruction template sent ahead of every batch.
const FacetPrompt = `You are analyzing transcripts of AI pair-programming sessions.
Each session below is delimited by a line of the form ===SESSION_BOUNDARY::<session_id>===.

For EVERY session, produce one JSON object with exactly these fields:
  "session_id":                the id from the session boundary marker
  "underlying_goal":           one sentence, what the user was trying to do
  "goal_category":             one of "feature-implementation", "debugging", "refactoring", "exploration", "other"
  "outcome":                   one of "fully-achieved", "partially-achieved", "unclear", "abandoned"
  "helpfulness":               integer 1-5, how helpful the assistant was overall
  "friction_types":            array, any of "wrong-approach", "tool-failure", "context-loss", "miscommunication", "other" (empty array if none)
  "improvement_opportunities": array of short strings, concrete ways the session could have gone better (empty array if none)
  "brief_summary":             2-3 sentences summarizing the session

Respond with a single JSON array containing one object per session, in any
order, and nothing else. Do not wrap the array in markdown fences. Use only
the enum values listed above; never invent new categories.`

// BuildPrompt assembles the payload for one batch: the instruction template
// followed by each member's normalized transcript behind its boundary marker.
func BuildPrompt(b batch.Batch, template string) string {
	var sb strings.Builder
	sb.WriteString(template)
	sb.WriteString("\n\n")
	for _, it := range b.Items {
		sb.WriteString(sessionBoundary)
		sb.WriteString(it.Session.ID)
		sb.WriteString("===\n")
		sb.WriteString(it.Transcript.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
