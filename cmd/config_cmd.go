// Package cmd implements the sessionlens CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/sessionlens/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	if flagJSON {
		return writeJSON(map[string]any{
			"config_file": config.Path(),
			"general":     cfg.General,
			"pricing": map[string]any{
				"url":        cfg.Pricing.URL,
				"cache_path": cfg.Pricing.CachePath,
				"timeout":    cfg.Pricing.Timeout.String(),
				"offline":    cfg.Pricing.Offline,
			},
			"server": map[string]any{
				"addr":                cfg.Server.Addr,
				"interval":            cfg.Server.Interval.String(),
				"requests_per_second": cfg.Server.RequestsPerSecond,
			},
			"appearance": cfg.Appearance,
		})
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", cfg.General.DataDir)
	fmt.Printf("    Page size:      %d\n", cfg.General.PageSize)
	if cfg.General.DefaultDays > 0 {
		fmt.Printf("    Default days:   %d\n", cfg.General.DefaultDays)
	} else {
		fmt.Println("    Default days:   all")
	}
	fmt.Println()

	fmt.Println("  [Pricing]")
	fmt.Printf("    URL:        %s\n", cfg.Pricing.URL)
	fmt.Printf("    Cache path: %s\n", cfg.Pricing.CachePath)
	fmt.Printf("    Timeout:    %s\n", cfg.Pricing.Timeout)
	fmt.Printf("    Offline:    %v\n", cfg.Pricing.Offline)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:    %s\n", cfg.Server.Addr)
	fmt.Printf("    Interval:   %s\n", cfg.Server.Interval)
	fmt.Printf("    Rate limit: %.0f req/s\n", cfg.Server.RequestsPerSecond)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `sessionlens setup` to reconfigure.")
	return nil
}
