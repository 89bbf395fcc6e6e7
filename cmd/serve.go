package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theirongolddev/sessionlens/internal/pipeline"
	"github.com/theirongolddev/sessionlens/internal/server"

	"github.com/spf13/cobra"
)

var (
	flagServeAddr         string
	flagServeInterval     time.Duration
	flagServeWatch        bool
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve usage and conversations over a local HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().DurationVar(&flagServeInterval, "interval", 0, "Polling interval (default from config)")
	serveCmd.Flags().BoolVar(&flagServeWatch, "watch", true, "Re-scan early when session logs change")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	resolver, err := loadResolver(ctx)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}
	interval := cfg.Server.Interval
	if flagServeInterval > 0 {
		interval = flagServeInterval
	}

	svc := server.New(server.Config{
		DataDir:           cfg.General.DataDir,
		Addr:              addr,
		Interval:          interval,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		PageSize:          cfg.General.PageSize,
		EventsBuffer:      flagServeEventsBuffer,
		UseCache:          flagCache,
		CachePath:         pipeline.CachePath(),
		Watch:             flagServeWatch,
		Options:           pipeline.Options{SkipSubagents: flagNoSubagents},
	}, resolver)

	fmt.Printf("  sessionlens listening on http://%s\n", addr)
	fmt.Printf("  Polling every %s from %s\n", interval, cfg.General.DataDir)
	fmt.Printf("  Pricing from %s (%d models)\n", resolver.Catalog().Source, resolver.Catalog().Len())

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
