package cmd

import (
	"fmt"

	"github.com/theirongolddev/sessionlens/internal/cli"
	"github.com/theirongolddev/sessionlens/internal/model"
	"github.com/theirongolddev/sessionlens/internal/pipeline"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily usage table",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, _ []string) error {
	sessions, dates, _, err := selectSessions(cmd)
	if err != nil {
		return err
	}
	days := pipeline.AggregateDays(sessions)

	if flagJSON {
		if days == nil {
			days = []model.DailyUsage{}
		}
		return writeJSON(days)
	}
	if len(days) == 0 {
		fmt.Println("\n  No data for the selected period.")
		return nil
	}

	costs := make([]float64, len(days))
	rows := make([][]string, 0, len(days))
	for i, d := range days {
		costs[i] = d.TotalCost
		rows = append(rows, []string{
			d.Date,
			cli.FormatNumber(int64(d.SessionCount)),
			cli.FormatTokens(d.InputTokens),
			cli.FormatTokens(d.OutputTokens),
			cli.FormatTokens(d.CacheCreationTokens + d.CacheReadTokens),
			cli.FormatCost(d.TotalCost),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("DAILY USAGE  " + rangeLabel(dates)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Sessions", "Input", "Output", "Cache", "Cost"},
		Rows:    rows,
	}))
	if len(costs) > 1 {
		fmt.Println()
		fmt.Printf("  Cost trend  %s\n", cli.RenderSparkline(costs))
	}
	return nil
}
