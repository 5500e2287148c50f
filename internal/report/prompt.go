package report

// ReportPrompt is the instruction block placed ahead of the statistics and
// facet data when asking the model for an HTML report.
const ReportPrompt = `You are a coaching analyst reviewing how a developer works with an AI
coding assistant. Below you will find aggregate statistics, weekly temporal
data, and per-session analysis records ("facets") extracted from their chat
sessions.

Produce a single, complete, self-contained HTML document (inline CSS, no
external resources, no JavaScript required) presenting an insights report:

1. A headline summary: total sessions, overall success rate, dominant goal
   categories, and the general trajectory from the weekly data.
2. A "What is working" section grounded in the high-helpfulness and
   fully-achieved sessions.
3. A "Friction patterns" section: the most common friction types, with
   concrete examples drawn from session summaries, and what they suggest
   about how prompts or workflow could change.
4. A "Per-project view" comparing projects by volume, outcomes, and
   friction.
5. A short list of specific, actionable recommendations, ordered by
   expected impact. Base every recommendation on the data provided; do not
   invent sessions or numbers.

Use a clean, readable layout with a muted dark color scheme. Charts may be
approximated with styled HTML bars. Output ONLY the HTML document, with no
surrounding commentary and no markdown fences.`
