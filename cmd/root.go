package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/theirongolddev/sessionlens/internal/cli"
	"github.com/theirongolddev/sessionlens/internal/config"
	"github.com/theirongolddev/sessionlens/internal/logger"
	"github.com/theirongolddev/sessionlens/internal/pipeline"
	"github.com/theirongolddev/sessionlens/internal/pricing"
	"github.com/theirongolddev/sessionlens/internal/store"
	"github.com/theirongolddev/sessionlens/internal/tui/theme"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"
)

var (
	flagDataDir     string
	flagOffline     bool
	flagCache       bool
	flagQuiet       bool
	flagVerbose     bool
	flagJSON        bool
	flagNoSubagents bool
	flagDates       []string
	flagDays        int
	flagProject     string

	// cfg is the effective configuration: file, then env, then flags.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sessionlens",
	Short: "Coding-assistant session log toolkit",
	Long: "Meter token usage and cost, and page through reconstructed conversations,\n" +
		"from coding-assistant JSONL session logs.",
	SilenceUsage:      true,
	PersistentPreRunE: setupRun,
	RunE:              runUsage,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Session log directory (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Skip the remote pricing catalog")
	rootCmd.PersistentFlags().BoolVar(&flagCache, "cache", false, "Use the SQLite session cache")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output and warnings")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Emit JSON instead of tables")
	rootCmd.PersistentFlags().BoolVar(&flagNoSubagents, "no-subagents", false, "Exclude subagent sessions")
	rootCmd.PersistentFlags().StringArrayVar(&flagDates, "date", nil, "Only count sessions started on this date (YYYY-MM-DD, repeatable)")
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 0, "Only count the last N days (default from config, 0 = all)")
	rootCmd.PersistentFlags().StringVarP(&flagProject, "project", "p", "", "Filter to project (substring match)")
}

// setupRun resolves the effective configuration before any command runs.
func setupRun(cmd *cobra.Command, _ []string) error {
	logger.Setup(os.Stderr, flagVerbose, flagQuiet)

	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	if cmd.Flags().Changed("data-dir") {
		cfg.General.DataDir = config.ExpandHome(flagDataDir)
	}
	if !cmd.Flags().Changed("days") {
		flagDays = cfg.General.DefaultDays
	}
	if flagOffline {
		cfg.Pricing.Offline = true
	}
	flagDataDir = cfg.General.DataDir

	theme.SetActive(cfg.Appearance.Theme)
	return nil
}

func pricingOptions() pricing.Options {
	return pricing.Options{
		URL:       cfg.Pricing.URL,
		CachePath: cfg.Pricing.CachePath,
		Timeout:   cfg.Pricing.Timeout,
		Offline:   cfg.Pricing.Offline,
	}
}

// loadResolver loads the pricing catalog through the fallback chain.
func loadResolver(ctx context.Context) (*pricing.Resolver, error) {
	cat, err := pricing.LoadCatalog(ctx, pricing.DefaultSources(pricingOptions())...)
	if err != nil {
		return nil, err
	}
	logger.Debug("pricing catalog loaded", "source", cat.Source, "models", cat.Len())
	return pricing.NewResolver(cat), nil
}

func loadOptions() pipeline.Options {
	opts := pipeline.Options{SkipSubagents: flagNoSubagents}
	if !flagQuiet && cli.IsTerminal() {
		opts.Progress = func(current, total int) {
			if current%100 == 0 || current == total {
				fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 24))
			}
		}
	}
	return opts
}

// loadData is the shared data loading path used by the usage commands.
// With --cache it goes through the SQLite cache and falls back to a full
// parse when the cache cannot be used.
func loadData(ctx context.Context, resolver *pricing.Resolver) (*pipeline.LoadResult, error) {
	opts := loadOptions()

	if flagCache {
		cache, err := store.Open(pipeline.CachePath())
		if err != nil {
			logger.Warn("cache unavailable, doing full parse", "err", err)
		} else {
			defer func() { _ = cache.Close() }()

			cr, err := pipeline.LoadWithCache(ctx, cfg.General.DataDir, resolver, resolver.Catalog().Fingerprint, cache, opts)
			if err == nil {
				finishProgress(opts)
				logger.Info("loaded sessions", "cached", cr.CacheHits, "reparsed", cr.Reparsed, "projects", cr.ProjectCount)
				return &cr.LoadResult, nil
			}
			logger.Warn("cache error, falling back to full parse", "err", err)
		}
	}

	result, err := pipeline.Load(ctx, cfg.General.DataDir, resolver, opts)
	finishProgress(opts)
	if err != nil {
		return nil, err
	}
	logger.Info("parsed sessions", "files", result.ParsedFiles, "projects", result.ProjectCount)
	if result.ParseErrors > 0 {
		logger.Warn("skipped unreadable log lines", "lines", result.ParseErrors)
	}
	return result, nil
}

func finishProgress(opts pipeline.Options) {
	if opts.Progress != nil {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
}

// writeJSON prints v as indented JSON with sorted map keys.
func writeJSON(v any) error {
	if err := json.MarshalWrite(os.Stdout, v, json.Deterministic(true), jsontext.WithIndent("  ")); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	fmt.Println()
	return nil
}
