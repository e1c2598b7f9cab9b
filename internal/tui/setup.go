package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/config"
	"github.com/theirongolddev/cashflowcast/internal/forecast"
	"github.com/theirongolddev/cashflowcast/internal/form"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/sample"
	"github.com/theirongolddev/cashflowcast/internal/tui/theme"
)

// SetupValues holds the answers of the first-run wizard.
type SetupValues struct {
	UseSample      bool
	Name           string
	OpeningBalance string
	Currency       string
	HorizonMonths  int
	Theme          string
}

// SetupDoneMsg is sent once the wizard's project and config were saved.
type SetupDoneMsg struct {
	Project model.Project
	Config  config.Config
	Err     error
}

var horizonOptions = []int{3, 6, 12, 24, 36}

// DefaultSetupValues returns the wizard's initial answers for cfg.
func DefaultSetupValues(cfg config.Config) *SetupValues {
	return &SetupValues{
		UseSample:      true,
		Name:           "My Budget",
		OpeningBalance: "0",
		Currency:       cfg.Display.Currency,
		HorizonMonths:  12,
		Theme:          theme.ByName(cfg.Display.Theme).Name,
	}
}

// NewSetupForm builds the first-run wizard bound to vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	horizons := make([]huh.Option[int], len(horizonOptions))
	for i, m := range horizonOptions {
		horizons[i] = huh.NewOption(fmt.Sprintf("%d months", m), m)
	}
	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themes = append(themes, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to cashflowcast").
				Description("No projects yet. Start from the sample household plan or an empty project."),
			huh.NewConfirm().
				Title("Start from the sample project?").
				Affirmative("Sample").
				Negative("Empty").
				Value(&vals.UseSample),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Value(&vals.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Opening balance").
				Value(&vals.OpeningBalance).
				Validate(validateOpening),
			huh.NewInput().
				Title("Currency").
				Description("ISO 4217 code, e.g. USD or EUR").
				Value(&vals.Currency).
				Validate(validateCurrency),
			huh.NewSelect[int]().
				Title("Forecast horizon").
				Options(horizons...).
				Value(&vals.HorizonMonths),
		).WithHideFunc(func() bool { return vals.UseSample }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&vals.Theme),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

func validateOpening(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	text := strings.TrimSpace(s)
	if strings.HasPrefix(text, "-") {
		// Overdrawn starting points are allowed.
		text = text[1:]
	}
	return validateAmount(text)
}

func validateCurrency(s string) error {
	if _, ok := forecast.NormalizeCurrency(s); !ok {
		return errors.New("unknown currency code")
	}
	return nil
}

// ApplySetup creates the project described by vals, makes it the default
// and saves the resulting configuration.
func ApplySetup(ctx context.Context, st Store, cfg config.Config, vals SetupValues, today calendar.Date) (model.Project, config.Config, error) {
	var p model.Project
	if vals.UseSample {
		p = sample.Project(today)
	} else {
		code, _ := forecast.NormalizeCurrency(vals.Currency)
		p = model.Project{
			ID:             uuid.NewString(),
			Name:           strings.TrimSpace(vals.Name),
			OpeningBalance: parseOpening(vals.OpeningBalance),
			Currency:       code,
			HorizonMonths:  max(1, vals.HorizonMonths),
			LastUpdated:    time.Now(),
		}
		cfg.Display.Currency = code
	}

	if err := st.SaveProject(ctx, p); err != nil {
		return model.Project{}, cfg, fmt.Errorf("saving project: %w", err)
	}

	cfg.General.DefaultProject = p.ID
	if theme.Valid(vals.Theme) {
		cfg.Display.Theme = vals.Theme
		theme.SetActive(vals.Theme)
	}
	if err := config.Save(cfg); err != nil {
		return p, cfg, fmt.Errorf("saving config: %w", err)
	}
	return p, cfg, nil
}

// parseOpening accepts signed amounts; anything unparseable is zero.
func parseOpening(s string) decimal.Decimal {
	v, _ := form.ParseDecimal(s)
	return v
}

func applySetupCmd(st Store, cfg config.Config, vals SetupValues, today calendar.Date) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		p, saved, err := ApplySetup(ctx, st, cfg, vals, today)
		return SetupDoneMsg{Project: p, Config: saved, Err: err}
	}
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	f, cmd := a.setupForm.Update(msg)
	if hf, ok := f.(*huh.Form); ok {
		a.setupForm = hf
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		vals := *a.setupVals
		a.setupForm = nil
		return a, applySetupCmd(a.store, a.cfg, vals, a.currentToday())
	case huh.StateAborted:
		a.setupForm = nil
		a.needSetup = false
		a.loadErr = errors.New("no projects yet: run `cashflowcast setup` or `cashflowcast sample`")
		return a, nil
	}
	return a, cmd
}
