package app

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/insights/internal/config"
	"github.com/blackwell-systems/insights/internal/facet"
	"github.com/blackwell-systems/insights/internal/output"
	"github.com/blackwell-systems/insights/internal/session"
	"github.com/blackwell-systems/insights/internal/stats"
)

var (
	statsFlagProject string
	statsFlagSince   int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate and weekly statistics",
	Long: `Stats computes aggregate and weekly statistics over the cached facets:
goal categories, outcomes, helpfulness, friction, and per-week success rate.
No external calls are made.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFlagProject, "project", "", "Only include facets whose project name contains this substring")
	statsCmd.Flags().IntVar(&statsFlagSince, "since", 0, "Only include sessions started in the last N days")

	rootCmd.AddCommand(statsCmd)
}

// statsOutput is the JSON shape combining both reductions.
type statsOutput struct {
	Aggregate stats.Aggregate    `json:"aggregate"`
	Weekly    []stats.WeekBucket `json:"weekly"`
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cache := facet.NewCache(cfg.FacetsDir())
	facets, err := cache.LoadAll(facet.LoadFilter{
		Project:   statsFlagProject,
		SinceDays: statsFlagSince,
	})
	if err != nil {
		return fmt.Errorf("loading facets: %w", err)
	}
	if len(facets) == 0 {
		return fmt.Errorf("no cached facets found; run 'insights run' first")
	}

	agg := stats.Compute(facets)
	weekly := stats.Temporal(facets)

	if flagJSON {
		return json.NewEncoder(os.Stdout).Encode(statsOutput{Aggregate: agg, Weekly: weekly})
	}

	printAggregate(&agg)
	printWeekly(weekly)
	return nil
}

func printAggregate(agg *stats.Aggregate) {
	fmt.Println(output.Section("Overview"))
	fmt.Println()

	achieved := agg.Outcomes[string(facet.OutcomeFull)] +
		agg.Outcomes[string(facet.OutcomePartial)]
	rate := 0.0
	if agg.TotalSessions > 0 {
		rate = float64(achieved) / float64(agg.TotalSessions)
	}

	line := func(label, value string) {
		fmt.Printf("  %s %s\n", output.StyleLabel.Render(label), value)
	}
	line("Sessions", fmt.Sprintf("%d", agg.TotalSessions))
	line("Success rate", output.RateBar(rate, 20))
	line("With friction", fmt.Sprintf("%d", agg.SessionsWithFriction))

	fmt.Println(output.Section("Goal Categories"))
	fmt.Println()
	printCounts(agg.GoalCategories, agg.TotalSessions)

	fmt.Println(output.Section("Outcomes"))
	fmt.Println()
	printCounts(agg.Outcomes, agg.TotalSessions)

	if len(agg.FrictionTypes) > 0 {
		fmt.Println(output.Section("Friction"))
		fmt.Println()
		printCounts(agg.FrictionTypes, 0)
	}

	fmt.Println(output.Section("Projects"))
	fmt.Println()
	table := output.NewTable("PROJECT", "SESSIONS", "FRICTION")
	for _, name := range agg.ProjectNames() {
		ps := agg.Projects[name]
		table.AddRow(session.DemangleProjectName(name),
			fmt.Sprintf("%d", ps.Sessions),
			fmt.Sprintf("%d", ps.SessionsWithFriction))
	}
	table.Print()
}

// printCounts renders a count map sorted by count descending, with a share
// column when a total is given.
func printCounts(counts map[string]int, total int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		label := output.StyleLabel.Render(k)
		if total > 0 {
			share := float64(counts[k]) / float64(total) * 100
			fmt.Printf("  %s %4d  %s\n", label, counts[k],
				output.StyleMuted.Render(fmt.Sprintf("%.0f%%", share)))
		} else {
			fmt.Printf("  %s %4d\n", label, counts[k])
		}
	}
}

func printWeekly(weekly []stats.WeekBucket) {
	if len(weekly) == 0 {
		return
	}
	fmt.Println(output.Section("Weekly"))
	fmt.Println()
	table := output.NewTable("WEEK", "SESSIONS", "SUCCESS", "PROJECTS")
	for _, w := range weekly {
		table.AddRow(w.Week,
			fmt.Sprintf("%d", w.Sessions),
			fmt.Sprintf("%.0f%%", w.SuccessRate*100),
			fmt.Sprintf("%d", w.ActiveProjects))
	}
	table.Print()
}
