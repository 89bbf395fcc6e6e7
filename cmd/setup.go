package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/sessionlens/internal/config"
	"github.com/theirongolddev/sessionlens/internal/logger"
	"github.com/theirongolddev/sessionlens/internal/source"
	"github.com/theirongolddev/sessionlens/internal/tui"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	files, err := source.ScanDir(cfg.General.DataDir)
	if err != nil {
		logger.Debug("scanning data dir for setup", "dir", cfg.General.DataDir, "err", err)
	}

	updated, err := tui.RunSetup(cfg, len(files), source.CountProjects(files))
	if err != nil {
		if errors.Is(err, tui.ErrSetupAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	if err := config.Save(updated); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("  Saved %s\n", config.Path())
	return nil
}
