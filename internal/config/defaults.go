// Package config provides configuration loading and defaults for insights.
package config

// DefaultSessionsDir is the default location of Claude Code's per-project
// session transcripts.
const DefaultSessionsDir = "~/.claude/projects"

// DefaultOutputDir is where facets and generated reports are written.
const DefaultOutputDir = "~/.claude/insights"

// DefaultConfigDir is the default location for insights configuration.
const DefaultConfigDir = "~/.config/insights"

// DefaultDBName is the filename for the run-history SQLite database.
const DefaultDBName = "insights.db"

// DefaultGemini holds the default external analyzer settings.
var DefaultGemini = Gemini{
	Command:        "gemini",
	Model:          "gemini-2.5-pro",
	TimeoutSeconds: 300,
	MaxRetries:     3,
	BackoffSeconds: []int{30, 60, 120},
}

// DefaultBatch holds the default batch planning limits.
var DefaultBatch = Batch{
	MaxSessions: 12,
	CharBudget:  700_000,
}

// DefaultPipeline holds the default pipeline execution settings.
var DefaultPipeline = Pipeline{
	Concurrency: 2,
}

// DefaultNormalize holds the default transcript normalization limits.
var DefaultNormalize = Normalize{
	MaxTurnChars:    20_000,
	MinSessionBytes: 100,
}
