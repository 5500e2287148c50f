// Package app contains the Cobra command tree for insights.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/insights/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "insights",
	Short: "Coaching insights from Claude Code session history",
	Long: `insights analyzes local Claude Code session transcripts with Gemini,
extracts a structured facet per session (goal, outcome, helpfulness,
friction), caches the results, and turns them into statistics and an HTML
coaching report.

Facets are cached per session and keyed to the transcript's modification
time, so repeated runs only pay for sessions that changed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagNoColor {
			output.SetNoColor(true)
		} else {
			output.AutoDetect()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("insights", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  run       Analyze sessions and generate a report")
		fmt.Println("  report    Regenerate the report from cached facets")
		fmt.Println("  stats     Show aggregate and weekly statistics")
		fmt.Println("  projects  List projects with session and cache counts")
		fmt.Println("  history   Show past pipeline runs")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/insights/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}

// logf prints a progress line to stderr when --verbose is set.
func logf(format string, args ...any) {
	if flagVerbose {
		fmt.Fprintln(os.Stderr, output.StyleMuted.Render(fmt.Sprintf(format, args...)))
	}
}
