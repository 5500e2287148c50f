package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/insights/internal/config"
	"github.com/blackwell-systems/insights/internal/output"
	"github.com/blackwell-systems/insights/internal/store"
)

var historyFlagLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past pipeline runs",
	Long: `History lists past analysis runs recorded in the local database:
when each ran, what filters applied, and how many sessions were analyzed,
reused, or failed.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyFlagLimit, "limit", 20, "Number of runs to show")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(historyFlagLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet. Use 'insights run' first.")
		return nil
	}

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(runs)
	}

	fmt.Println(output.Section("Run History"))
	fmt.Println()
	table := output.NewTable("WHEN", "FILTER", "DISCOVERED", "ANALYZED", "REUSED", "FAILED", "TOOK")
	for _, r := range runs {
		filter := r.ProjectFilter
		if filter == "" {
			filter = "-"
		}
		if r.SinceDays > 0 {
			filter = fmt.Sprintf("%s (last %dd)", filter, r.SinceDays)
		}
		failed := fmt.Sprintf("%d", r.FailedBatches)
		if r.FailedBatches > 0 {
			failed = output.StyleError.Render(failed)
		}
		table.AddRow(
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			filter,
			fmt.Sprintf("%d", r.Discovered),
			fmt.Sprintf("%d", r.Analyzed),
			fmt.Sprintf("%d", r.Reused),
			failed,
			r.Duration().Round(time.Second).String(),
		)
	}
	table.Print()
	return nil
}
