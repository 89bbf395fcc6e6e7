package cmd

import (
	"fmt"

	"github.com/theirongolddev/sessionlens/internal/cli"
	"github.com/theirongolddev/sessionlens/internal/model"
	"github.com/theirongolddev/sessionlens/internal/pipeline"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Session list with token and cost totals",
	RunE:  runSessions,
}

var sessionsLimit int

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 20, "Number of sessions to show (0 = all)")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	sessions, dates, _, err := selectSessions(cmd)
	if err != nil {
		return err
	}

	pipeline.SortSessions(sessions)
	if sessionsLimit > 0 && len(sessions) > sessionsLimit {
		sessions = sessions[:sessionsLimit]
	}

	if flagJSON {
		if sessions == nil {
			sessions = []model.SessionUsage{}
		}
		return writeJSON(sessions)
	}
	if len(sessions) == 0 {
		fmt.Println("\n  No sessions in the selected range.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SESSIONS  %s (showing %d)", rangeLabel(dates), len(sessions))))
	fmt.Println()

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		started := s.FirstTimestamp
		if len(started) > 16 {
			started = started[:16]
		}
		rows = append(rows, []string{
			started,
			cli.Truncate(s.SessionID, 24),
			cli.Truncate(s.Project, 16),
			cli.FormatNumber(int64(s.TotalCalls())),
			cli.FormatTokens(s.Tokens().Total()),
			cli.FormatCost(s.TotalCost),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Started", "Session", "Project", "Calls", "Tokens", "Cost"},
		Rows:    rows,
	}))
	return nil
}
