package cmd

import (
	"fmt"

	"github.com/theirongolddev/sessionlens/internal/cli"
	"github.com/theirongolddev/sessionlens/internal/model"
	"github.com/theirongolddev/sessionlens/internal/pipeline"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Model usage breakdown",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, _ []string) error {
	sessions, dates, _, err := selectSessions(cmd)
	if err != nil {
		return err
	}
	models := pipeline.ModelDistribution(sessions)

	if flagJSON {
		if models == nil {
			models = []model.ModelUsageCount{}
		}
		return writeJSON(models)
	}
	if len(models) == 0 {
		fmt.Println("\n  No model data in the selected range.")
		return nil
	}

	var totalCalls int
	for _, m := range models {
		totalCalls += m.Count
	}
	// Sorted by count, so the first row is the widest bar.
	maxCalls := float64(models[0].Count)

	rows := make([][]string, 0, len(models))
	for _, m := range models {
		rows = append(rows, []string{
			cli.Truncate(m.Model, 32),
			cli.FormatNumber(int64(m.Count)),
			cli.FormatCost(m.TotalCost),
			cli.FormatShare(float64(m.Count), float64(totalCalls)),
			cli.RenderBar(float64(m.Count), maxCalls, 20),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("MODEL USAGE  " + rangeLabel(dates)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Model", "Calls", "Cost", "Share", ""},
		Rows:    rows,
	}))
	return nil
}
