package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/meridies/eventbid/internal/config"
	"github.com/meridies/eventbid/internal/projection"
	"github.com/meridies/eventbid/internal/store"
	"github.com/meridies/eventbid/internal/tui/theme"
)

// setupValues backs the first-run wizard.
type setupValues struct {
	originKingdom string
	defaultGroup  string
	driver        string
	dsn           string
	themeName     string
	zeroMargin    string
}

func newSetupValues(cfg config.Config) *setupValues {
	return &setupValues{
		originKingdom: cfg.General.OriginKingdom,
		defaultGroup:  cfg.General.DefaultGroup,
		driver:        cfg.Store.Driver,
		dsn:           cfg.Store.DSN,
		themeName:     cfg.Appearance.Theme,
		zeroMargin:    cfg.Projection.ZeroMarginPolicy,
	}
}

func newSetupForm(v *setupValues) *huh.Form {
	drivers := make([]huh.Option[string], 0, len(store.Drivers))
	for _, d := range store.Drivers {
		drivers = append(drivers, huh.NewOption(d, d))
	}
	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themes = append(themes, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to eventbid").
				Description("A few defaults for new bids, where to keep them,\nand how the dashboard looks."),
			huh.NewInput().
				Title("Origin kingdom").
				Value(&v.originKingdom).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("origin kingdom is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Default hosting group").
				Description("Prefilled on new bids; leave blank to skip.").
				Value(&v.defaultGroup),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Store").
				Description("Where bids and site profiles are saved.").
				Options(drivers...).
				Value(&v.driver),
			huh.NewInput().
				Title("Store location").
				Description("File path or DSN; blank uses the default for the store.").
				Value(&v.dsn),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&v.themeName),
			huh.NewSelect[string]().
				Title("Break-even at zero margin").
				Options(
					huh.NewOption("undefined", string(projection.ZeroMarginUndefined)),
					huh.NewOption("zero when there are no fixed costs", string(projection.ZeroMarginZeroWhenNoFixed)),
				).
				Value(&v.zeroMargin),
		),
	).WithShowHelp(true)
}

func (v *setupValues) apply(cfg *config.Config) {
	cfg.General.OriginKingdom = strings.TrimSpace(v.originKingdom)
	cfg.General.DefaultGroup = strings.TrimSpace(v.defaultGroup)
	cfg.Store.Driver = v.driver
	cfg.Store.DSN = strings.TrimSpace(v.dsn)
	cfg.Appearance.Theme = v.themeName
	cfg.Projection.ZeroMarginPolicy = v.zeroMargin
}

// RunSetup runs the setup wizard in the terminal and writes the result to
// path. It returns the updated config.
func RunSetup(cfg config.Config, path string) (config.Config, error) {
	vals := newSetupValues(cfg)
	if err := newSetupForm(vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return cfg, err
		}
		return cfg, fmt.Errorf("setup form: %w", err)
	}
	vals.apply(&cfg)
	if err := config.SaveTo(path, cfg); err != nil {
		return cfg, fmt.Errorf("saving config: %w", err)
	}
	theme.SetActive(cfg.Appearance.Theme)
	return cfg, nil
}

