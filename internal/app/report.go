package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/insights/internal/config"
	"github.com/blackwell-systems/insights/internal/facet"
	"github.com/blackwell-systems/insights/internal/gemini"
	"github.com/blackwell-systems/insights/internal/output"
	"github.com/blackwell-systems/insights/internal/report"
)

var (
	reportFlagProject string
	reportFlagSince   int
	reportFlagNoOpen  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Regenerate the report from cached facets",
	Long: `Report rebuilds the HTML coaching report from facets already in the
cache, without analyzing any sessions. Useful after tweaking filters or when
a previous run analyzed everything but report generation failed.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFlagProject, "project", "", "Only include facets whose project name contains this substring")
	reportCmd.Flags().IntVar(&reportFlagSince, "since", 0, "Only include sessions started in the last N days")
	reportCmd.Flags().BoolVar(&reportFlagNoOpen, "no-open", false, "Do not open the generated report in a browser")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := gemini.CheckCLI(cfg.Gemini.Command); err != nil {
		return err
	}

	cache := facet.NewCache(cfg.FacetsDir())
	facets, err := cache.LoadAll(facet.LoadFilter{
		Project:   reportFlagProject,
		SinceDays: reportFlagSince,
	})
	if err != nil {
		return fmt.Errorf("loading facets: %w", err)
	}
	if len(facets) == 0 {
		return fmt.Errorf("no cached facets found; run 'insights run' first")
	}

	runner := gemini.CLIRunner(
		cfg.Gemini.Command,
		cfg.Gemini.Model,
		time.Duration(cfg.Gemini.TimeoutSeconds)*time.Second,
	)
	path, err := report.Generate(cmd.Context(), runner, facets, cfg.OutputDir, report.Options{
		ProjectSlug: reportFlagProject,
		Logf:        logf,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", output.StyleBold.Render("Report:"), path)
	if !reportFlagNoOpen {
		if err := report.OpenInBrowser(path); err != nil {
			logf("could not open report: %v", err)
		}
	}
	return nil
}
