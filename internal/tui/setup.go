package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/sessionlens/internal/config"
	"github.com/theirongolddev/sessionlens/internal/tui/theme"
)

// ErrSetupAborted is returned when the user cancels the setup form.
var ErrSetupAborted = errors.New("setup aborted")

// setupValues holds the form fields bound to huh inputs.
type setupValues struct {
	dataDir  string
	pageSize int
	days     int
	offline  bool
	theme    string
}

func valuesFromConfig(cfg config.Config) setupValues {
	return setupValues{
		dataDir:  cfg.General.DataDir,
		pageSize: cfg.General.PageSize,
		days:     cfg.General.DefaultDays,
		offline:  cfg.Pricing.Offline,
		theme:    cfg.Appearance.Theme,
	}
}

func (v setupValues) apply(cfg *config.Config) {
	cfg.General.DataDir = strings.TrimSpace(v.dataDir)
	cfg.General.PageSize = v.pageSize
	cfg.General.DefaultDays = v.days
	cfg.Pricing.Offline = v.offline
	cfg.Appearance.Theme = v.theme
}

func newSetupForm(summary string, vals *setupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("sessionlens setup").
				Description(summary),
			huh.NewInput().
				Title("Session log directory").
				Description("Searched recursively for *.jsonl session logs.").
				Value(&vals.dataDir).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("a directory is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Messages per conversation page").
				Options(
					huh.NewOption("25", 25),
					huh.NewOption("50", 50),
					huh.NewOption("100", 100),
				).
				Value(&vals.pageSize),
			huh.NewSelect[int]().
				Title("Default date window").
				Options(
					huh.NewOption("All time", 0),
					huh.NewOption("7 days", 7),
					huh.NewOption("30 days", 30),
					huh.NewOption("90 days", 90),
				).
				Value(&vals.days),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Work offline?").
				Description("Skip fetching the remote pricing catalog; use the cached or built-in one.").
				Value(&vals.offline),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	).WithTheme(huh.ThemeCharm())
}

// RunSetup runs the setup form over cfg and returns the edited copy.
// sessions and projects describe what was found under the current data
// directory and are shown as context.
func RunSetup(cfg config.Config, sessions, projects int) (config.Config, error) {
	vals := valuesFromConfig(cfg)
	summary := "Found " + strconv.Itoa(sessions) + " session logs in " + strconv.Itoa(projects) + " projects."
	if sessions == 0 {
		summary = "No session logs found yet under " + cfg.General.DataDir + "."
	}

	if err := newSetupForm(summary, &vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return cfg, ErrSetupAborted
		}
		return cfg, fmt.Errorf("setup form: %w", err)
	}

	vals.apply(&cfg)
	return cfg, nil
}
