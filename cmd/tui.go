package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/meridies/eventbid/internal/model"
	"github.com/meridies/eventbid/internal/projection"
	"github.com/meridies/eventbid/internal/session"
	"github.com/meridies/eventbid/internal/store"
	"github.com/meridies/eventbid/internal/tui"
	"github.com/meridies/eventbid/internal/tui/theme"
)

var tuiScenario scenario

var tuiCmd = &cobra.Command{
	Use:   "tui [KEY]",
	Short: "Edit and project a bid interactively",
	Long: "Launch the interactive projection dashboard. Without KEY a blank bid is\n" +
		"opened; press E to fill it in and s to save it.",
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	tuiScenario.register(tuiCmd.Flags())
	rootCmd.AddCommand(tuiCmd)
}

func configExists() bool {
	_, err := os.Stat(configPath())
	return err == nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	key := ""
	if len(args) == 1 {
		key = args[0]
	}
	ctx := cmd.Context()

	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor so background styling produces ANSI codes.
	// Without this, lipgloss may default to the Ascii profile.
	lipgloss.SetColorProfile(termenv.TrueColor)

	return withSession(ctx, key, func(_ store.Store, sess *session.Session) error {
		in, err := tuiInputs(sess.Bid())
		if err != nil {
			return err
		}
		app := tui.NewApp(ctx, sess, tui.Options{
			Config:     cfg,
			ConfigPath: configPath(),
			Inputs:     in,
			NeedSetup:  !configExists(),
		})
		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		if sess.Dirty() {
			fmt.Fprintln(os.Stderr, "  Unsaved changes were discarded.")
		}
		return nil
	})
}

// tuiInputs starts the dashboard blank unless sales flags were given.
func tuiInputs(b model.BidRecord) (projection.Inputs, error) {
	if tuiScenario.explicit() || tuiScenario.flags.Changed("attendance") {
		return tuiScenario.inputs(b)
	}
	mode, err := model.ParseMode(cfg.Projection.Mode)
	if tuiScenario.flags.Changed("mode") {
		mode, err = model.ParseMode(tuiScenario.mode)
	}
	if err != nil {
		return projection.Inputs{}, err
	}
	return projection.Inputs{Mode: mode}, nil
}
