package app

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/insights/internal/config"
	"github.com/blackwell-systems/insights/internal/facet"
	"github.com/blackwell-systems/insights/internal/gemini"
	"github.com/blackwell-systems/insights/internal/output"
	"github.com/blackwell-systems/insights/internal/pipeline"
	"github.com/blackwell-systems/insights/internal/report"
	"github.com/blackwell-systems/insights/internal/session"
	"github.com/blackwell-systems/insights/internal/store"
)

var (
	runFlagProject  string
	runFlagSince    int
	runFlagLimit    int
	runFlagForce    bool
	runFlagDryRun   bool
	runFlagNoReport bool
	runFlagNoOpen   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze sessions and generate a report",
	Long: `Run discovers session transcripts, analyzes any that are new or
changed since the last run, caches one facet per session, and regenerates
the HTML coaching report.

With --dry-run it prints the exact batch plan (which sessions would be
analyzed, in which batches, at what size) without calling Gemini.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runFlagProject, "project", "", "Only analyze sessions whose project name contains this substring")
	runCmd.Flags().IntVar(&runFlagSince, "since", 0, "Only analyze sessions modified in the last N days")
	runCmd.Flags().IntVar(&runFlagLimit, "limit", 0, "Cap the number of sessions considered (newest first)")
	runCmd.Flags().BoolVar(&runFlagForce, "force", false, "Re-analyze all sessions, ignoring cached facets")
	runCmd.Flags().BoolVar(&runFlagDryRun, "dry-run", false, "Print the batch plan without calling Gemini")
	runCmd.Flags().BoolVar(&runFlagNoReport, "no-report", false, "Skip report generation after analysis")
	runCmd.Flags().BoolVar(&runFlagNoOpen, "no-open", false, "Do not open the generated report in a browser")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if !runFlagDryRun {
		if err := gemini.CheckCLI(cfg.Gemini.Command); err != nil {
			return err
		}
	}

	cache := facet.NewCache(cfg.FacetsDir())
	inv := newInvoker(cfg)

	opts := pipeline.Options{
		SessionsDir: cfg.SessionsDir,
		Filters: session.Filters{
			Project:   runFlagProject,
			SinceDays: runFlagSince,
			Limit:     runFlagLimit,
			MinBytes:  cfg.Normalize.MinSessionBytes,
		},
		Force:        runFlagForce,
		DryRun:       runFlagDryRun,
		Concurrency:  cfg.Pipeline.Concurrency,
		CharBudget:   cfg.Batch.CharBudget,
		MaxPerBatch:  cfg.Batch.MaxSessions,
		MaxTurnChars: cfg.Normalize.MaxTurnChars,
		Logf:         logf,
	}

	started := time.Now()
	res, err := pipeline.Run(cmd.Context(), opts, cache, inv)
	if err != nil {
		return err
	}

	if runFlagDryRun {
		return printPlan(res)
	}

	printRunSummary(res)

	if err := persistRun(started, res); err != nil {
		// Run history is auxiliary; the analysis already succeeded.
		fmt.Fprintln(os.Stderr, output.StyleWarning.Render(fmt.Sprintf("could not record run history: %v", err)))
	}

	if res.AllBatchesFailed() {
		return fmt.Errorf("all %d batches failed; no facets were cached", res.TotalBatches)
	}

	if runFlagNoReport {
		return nil
	}
	return generateReport(cmd, cfg, cache)
}

// newInvoker wires the configured Gemini CLI into an Invoker.
func newInvoker(cfg *config.Config) *gemini.Invoker {
	runner := gemini.CLIRunner(
		cfg.Gemini.Command,
		cfg.Gemini.Model,
		time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second,
	)
	backoff := make([]time.Duration, 0, len(cfg.Gemini.BackoffSeconds))
	for _, s := range cfg.Gemini.BackoffSeconds {
		backoff = append(backoff, time.Duration(s)*time.Second)
	}
	inv := gemini.NewInvoker(runner, cfg.Gemini.MaxRetries, backoff)
	inv.Logf = logf
	return inv
}

// printPlan renders the dry-run batch plan.
func printPlan(res *pipeline.Result) error {
	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(res)
	}

	fmt.Println(output.Section("Batch Plan (dry run)"))
	fmt.Println()
	fmt.Printf("  %s %d discovered, %d cached, %d to analyze, %d skipped\n\n",
		output.StyleBold.Render("Sessions:"),
		res.Discovered, res.Reused, res.Pending-res.Skipped, res.Skipped)

	if len(res.Plan) == 0 {
		fmt.Println(output.StyleSuccess.Render("  Nothing to analyze; all facets are current."))
		return nil
	}

	table := output.NewTable("BATCH", "SESSIONS", "SIZE")
	for i, b := range res.Plan {
		table.AddRow(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", len(b.Items)),
			humanize.Comma(int64(b.Chars()))+" chars",
		)
	}
	table.Print()

	fmt.Println(output.Section("Projects"))
	fmt.Println()
	projTable := output.NewTable("PROJECT", "DISCOVERED", "PENDING")
	for _, name := range sortedProjectNames(res.Projects) {
		p := res.Projects[name]
		projTable.AddRow(session.DemangleProjectName(name),
			fmt.Sprintf("%d", p.Discovered),
			fmt.Sprintf("%d", p.Pending))
	}
	projTable.Print()
	return nil
}

// printRunSummary renders the end-of-run counters.
func printRunSummary(res *pipeline.Result) {
	fmt.Println(output.Section("Run Summary"))
	fmt.Println()

	line := func(label, value string) {
		fmt.Printf("  %s %s\n", output.StyleLabel.Render(label), value)
	}
	line("Discovered", fmt.Sprintf("%d sessions", res.Discovered))
	line("Cached (reused)", fmt.Sprintf("%d", res.Reused))
	line("Analyzed", output.StyleSuccess.Render(fmt.Sprintf("%d", res.Analyzed)))
	line("Skipped", fmt.Sprintf("%d", res.Skipped))
	if res.FailedBatches > 0 {
		line("Failed batches", output.StyleError.Render(
			fmt.Sprintf("%d of %d", res.FailedBatches, res.TotalBatches)))
	} else if res.TotalBatches > 0 {
		line("Batches", fmt.Sprintf("%d", res.TotalBatches))
	}
	if n := len(res.DiscoveryErrors); n > 0 {
		line("Discovery errors", output.StyleWarning.Render(fmt.Sprintf("%d", n)))
	}
	fmt.Println()
}

// persistRun records the finished run in the local history database.
func persistRun(started time.Time, res *pipeline.Result) error {
	db, err := store.Open(config.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.InsertRun(&store.RunRecord{
		StartedAt:     started,
		FinishedAt:    time.Now(),
		ProjectFilter: runFlagProject,
		SinceDays:     runFlagSince,
		Force:         runFlagForce,
		Discovered:    res.Discovered,
		Reused:        res.Reused,
		Analyzed:      res.Analyzed,
		Skipped:       res.Skipped,
		TotalBatches:  res.TotalBatches,
		FailedBatches: res.FailedBatches,
		Version:       appVersion,
	})
	return err
}

// generateReport regenerates the HTML report from the current cache and
// opens it unless suppressed.
func generateReport(cmd *cobra.Command, cfg *config.Config, cache *facet.Cache) error {
	facets, err := cache.LoadAll(facet.LoadFilter{Project: runFlagProject})
	if err != nil {
		return fmt.Errorf("loading facets: %w", err)
	}
	if len(facets) == 0 {
		fmt.Println(output.StyleWarning.Render("No cached facets; skipping report."))
		return nil
	}

	runner := gemini.CLIRunner(
		cfg.Gemini.Command,
		cfg.Gemini.Model,
		time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second,
	)
	path, err := report.Generate(cmd.Context(), runner, facets, cfg.OutputDir, report.Options{
		ProjectSlug: runFlagProject,
		Logf:        logf,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", output.StyleBold.Render("Report:"), path)
	if !runFlagNoOpen {
		if err := report.OpenInBrowser(path); err != nil {
			logf("could not open report: %v", err)
		}
	}
	return nil
}

// sortedProjectNames returns plan keys ordered by pending count descending,
// ties broken by name.
func sortedProjectNames(projects map[string]*pipeline.ProjectPlan) []string {
	names := make([]string, 0, len(projects))
	for name := range projects {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := projects[names[i]], projects[names[j]]
		if a.Pending != b.Pending {
			return a.Pending > b.Pending
		}
		return names[i] < names[j]
	})
	return names
}
