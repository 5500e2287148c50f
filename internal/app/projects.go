package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/insights/internal/config"
	"github.com/blackwell-systems/insights/internal/facet"
	"github.com/blackwell-systems/insights/internal/output"
	"github.com/blackwell-systems/insights/internal/pipeline"
	"github.com/blackwell-systems/insights/internal/session"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects with session and cache counts",
	Long: `Projects lists every project found in the sessions directory with its
discovered session count and how many of those sessions still need analysis.
No external calls are made.`,
	RunE: runProjects,
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}

// projectRow is the JSON shape for one project line.
type projectRow struct {
	Project    string `json:"project"`
	Directory  string `json:"directory"`
	Discovered int    `json:"discovered"`
	Pending    int    `json:"pending"`
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cache := facet.NewCache(cfg.FacetsDir())
	res, err := pipeline.Run(cmd.Context(), pipeline.Options{
		SessionsDir: cfg.SessionsDir,
		Filters: session.Filters{
			MinBytes: cfg.Normalize.MinSessionBytes,
		},
		DryRun:       true,
		CharBudget:   cfg.Batch.CharBudget,
		MaxPerBatch:  cfg.Batch.MaxSessions,
		MaxTurnChars: cfg.Normalize.MaxTurnChars,
		Logf:         logf,
	}, cache, nil)
	if err != nil {
		return err
	}

	rows := make([]projectRow, 0, len(res.Projects))
	for _, name := range sortedProjectNames(res.Projects) {
		p := res.Projects[name]
		rows = append(rows, projectRow{
			Project:    session.DemangleProjectName(name),
			Directory:  name,
			Discovered: p.Discovered,
			Pending:    p.Pending,
		})
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(rows)
	}

	fmt.Println(output.Section("Projects"))
	fmt.Println()
	table := output.NewTable("PROJECT", "SESSIONS", "PENDING")
	for _, r := range rows {
		pending := fmt.Sprintf("%d", r.Pending)
		if r.Pending > 0 {
			pending = output.StyleWarning.Render(pending)
		}
		table.AddRow(r.Project, fmt.Sprintf("%d", r.Discovered), pending)
	}
	table.Print()
	return nil
}
