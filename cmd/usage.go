package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/sessionlens/internal/cli"
	"github.com/theirongolddev/sessionlens/internal/model"
	"github.com/theirongolddev/sessionlens/internal/pipeline"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Token and cost summary",
	RunE:  runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
}

// dateFilter returns the date allow-list from --date or --days. Explicit
// dates win; nil means no date filter.
func dateFilter(now time.Time) ([]string, error) {
	if len(flagDates) > 0 {
		for _, d := range flagDates {
			if _, err := time.Parse("2006-01-02", d); err != nil {
				return nil, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", d)
			}
		}
		return flagDates, nil
	}
	return pipeline.DateWindow(flagDays, now), nil
}

func rangeLabel(dates []string) string {
	switch {
	case len(flagDates) > 0:
		return strings.Join(dates, ", ")
	case flagDays > 0:
		return fmt.Sprintf("Last %dd", flagDays)
	default:
		return "All time"
	}
}

// selectSessions loads usage and applies the project and date filters.
func selectSessions(cmd *cobra.Command) ([]model.SessionUsage, []string, *pipeline.LoadResult, error) {
	dates, err := dateFilter(time.Now())
	if err != nil {
		return nil, nil, nil, err
	}

	ctx := cmd.Context()
	resolver, err := loadResolver(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	result, err := loadData(ctx, resolver)
	if err != nil {
		return nil, nil, nil, err
	}

	sessions := result.Sessions
	if flagProject != "" {
		sessions = pipeline.FilterByProject(sessions, flagProject)
	}
	return pipeline.FilterByDates(sessions, dates), dates, result, nil
}

func runUsage(cmd *cobra.Command, _ []string) error {
	sessions, dates, result, err := selectSessions(cmd)
	if err != nil {
		return err
	}
	summary := pipeline.AggregateUsage(sessions, nil)

	if flagJSON {
		return writeJSON(summary)
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No sessions found.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("USAGE  " + rangeLabel(dates)))
	fmt.Println()

	total := summary.TotalTokens()
	rows := [][]string{
		{"Sessions", cli.FormatNumber(int64(summary.TotalSessions)), ""},
		{"Input", cli.FormatTokens(summary.TotalInputTokens), cli.FormatShare(float64(summary.TotalInputTokens), float64(total))},
		{"Output", cli.FormatTokens(summary.TotalOutputTokens), cli.FormatShare(float64(summary.TotalOutputTokens), float64(total))},
		{"Cache write", cli.FormatTokens(summary.TotalCacheCreationTokens), cli.FormatShare(float64(summary.TotalCacheCreationTokens), float64(total))},
		{"Cache read", cli.FormatTokens(summary.TotalCacheReadTokens), cli.FormatShare(float64(summary.TotalCacheReadTokens), float64(total))},
		{"Total tokens", cli.FormatTokens(total), ""},
		{"Cost", cli.FormatCost(summary.TotalCost), ""},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value", "Share"},
		Rows:    rows,
	}))

	if result.ParseErrors > 0 || result.FileErrors > 0 {
		fmt.Println()
		fmt.Println(cli.RenderWarning(fmt.Sprintf("%d unreadable lines and %d unreadable files were skipped",
			result.ParseErrors, result.FileErrors)))
	}
	return nil
}
