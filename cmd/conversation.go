package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/sessionlens/internal/cli"
	"github.com/theirongolddev/sessionlens/internal/conversation"
	"github.com/theirongolddev/sessionlens/internal/logger"
	"github.com/theirongolddev/sessionlens/internal/model"
	"github.com/theirongolddev/sessionlens/internal/source"
	"github.com/theirongolddev/sessionlens/internal/tui"

	"github.com/spf13/cobra"
)

var conversationCmd = &cobra.Command{
	Use:     "conversation <session-id|file.jsonl|archive.md>",
	Aliases: []string{"conv"},
	Short:   "Show a reconstructed conversation, one page at a time",
	Args:    cobra.ExactArgs(1),
	RunE:    runConversation,
}

var (
	convPage        int
	convPageSize    int
	convInteractive bool
)

func init() {
	conversationCmd.Flags().IntVar(&convPage, "page", 0, "Page to show (0-based)")
	conversationCmd.Flags().IntVar(&convPageSize, "page-size", 0, "Messages per page (default from config)")
	conversationCmd.Flags().BoolVarP(&convInteractive, "interactive", "i", false, "Open the full-screen pager")
	rootCmd.AddCommand(conversationCmd)
}

func runConversation(_ *cobra.Command, args []string) error {
	ref := args[0]
	if convPage < 0 {
		return fmt.Errorf("invalid --page %d: must be >= 0", convPage)
	}
	pageSize := convPageSize
	if pageSize <= 0 {
		pageSize = cfg.General.PageSize
	}

	path, err := conversation.Resolve(ref, cfg.General.DataDir)
	if err != nil {
		if errors.Is(err, source.ErrSessionNotFound) {
			return fmt.Errorf("no session %q under %s", ref, cfg.General.DataDir)
		}
		return err
	}

	if convInteractive && !flagJSON {
		return runPager(ref, path, pageSize)
	}

	res, err := conversation.Load(path, convPage, pageSize)
	if err != nil {
		return err
	}
	if res.Skipped > 0 {
		logger.Warn("skipped unreadable log lines", "path", path, "lines", res.Skipped)
	}

	if flagJSON {
		return writeJSON(res.View)
	}
	fmt.Println()
	fmt.Print(cli.RenderConversation(res.View, cli.TerminalWidth()))
	return nil
}

// runPager reconstructs the log once and lets the pager slice it.
func runPager(ref, path string, pageSize int) error {
	var messages []model.Message
	hasTranscript := false
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			msgs, skipped, err := conversation.Reconstruct(path)
			if err != nil {
				return fmt.Errorf("loading conversation: %w", err)
			}
			if skipped > 0 {
				logger.Warn("skipped unreadable log lines", "path", path, "lines", skipped)
			}
			messages, hasTranscript = msgs, true
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading conversation: %w", err)
		}
	}

	load := func(page, size int) (model.ConversationView, error) {
		if !hasTranscript {
			return conversation.NoTranscript(), nil
		}
		return conversation.Paginate(messages, page, size), nil
	}
	return tui.Run(tui.NewPager(filepath.Base(ref), convPage, pageSize, load))
}
