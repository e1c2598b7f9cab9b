package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashflowcast/internal/cli"
	"github.com/theirongolddev/cashflowcast/internal/config"
	"github.com/theirongolddev/cashflowcast/internal/forecast"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/tui/components"
	"github.com/theirongolddev/cashflowcast/internal/tui/theme"
)

const (
	settingsFieldOpening = iota
	settingsFieldHorizon
	settingsFieldName
	settingsFieldTheme
	settingsFieldHorizonOverride
	settingsFieldCurrency
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
}

func newSettingsState() settingsState {
	return settingsState{input: newSettingsInput()}
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Width = 40
	return ti
}

// isProjectField reports whether field is stored on the project rather
// than in the config file.
func isProjectField(field int) bool {
	return field == settingsFieldOpening || field == settingsFieldHorizon || field == settingsFieldName
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldOpening:
		ti.Placeholder = "2500"
		ti.SetValue(a.project.OpeningBalance.String())
	case settingsFieldHorizon:
		ti.Placeholder = "12 (months)"
		ti.SetValue(strconv.Itoa(a.project.Months()))
	case settingsFieldName:
		ti.SetValue(a.project.Name)
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(theme.Active.Name)
	case settingsFieldHorizonOverride:
		ti.Placeholder = "0 (use each project's horizon)"
		ti.SetValue(strconv.Itoa(a.opts.HorizonMonths))
	case settingsFieldCurrency:
		ti.Placeholder = "USD"
		ti.SetValue(a.cfg.Display.Currency)
	}

	ti.Focus()
	a.settings.input = ti
	return a, textinput.Blink
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settings.editing = false
		cmd := a.settingsSave()
		a.settings.saved = a.settings.saveErr == nil && cmd == nil
		return a, cmd
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies the edited value. Config fields are written
// immediately; project fields return a command that saves the project.
func (a *App) settingsSave() tea.Cmd {
	val := strings.TrimSpace(a.settings.input.Value())
	a.settings.saveErr = nil

	if isProjectField(a.settings.cursor) {
		p := a.project
		switch a.settings.cursor {
		case settingsFieldOpening:
			if err := validateOpening(val); err != nil {
				a.settings.saveErr = err
				return nil
			}
			p.OpeningBalance = parseOpening(val)
		case settingsFieldHorizon:
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				a.settings.saveErr = errors.New("horizon must be a whole number of months")
				return nil
			}
			p.HorizonMonths = n
		case settingsFieldName:
			if val == "" {
				a.settings.saveErr = errors.New("name is required")
				return nil
			}
			p.Name = val
		}
		p.LastUpdated = time.Now()
		return saveProjectCmd(a.store, p)
	}

	cfg := a.cfg
	switch a.settings.cursor {
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return nil
		}
		cfg.Display.Theme = val
		theme.SetActive(val)
	case settingsFieldHorizonOverride:
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			a.settings.saveErr = errors.New("override must be 0 or a number of months")
			return nil
		}
		cfg.General.HorizonMonths = n
		a.opts.HorizonMonths = n
		a.recompute()
	case settingsFieldCurrency:
		code, ok := forecast.NormalizeCurrency(val)
		if !ok {
			a.settings.saveErr = fmt.Errorf("unknown currency %q", val)
			return nil
		}
		cfg.Display.Currency = code
	}

	a.cfg = cfg
	a.settings.saveErr = config.Save(cfg)
	return nil
}

func saveProjectCmd(st Store, p model.Project) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return EntrySavedMsg{Label: p.Name, Err: st.SaveProject(ctx, p)}
	}
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	override := "(off)"
	if a.opts.HorizonMonths > 0 {
		override = cli.FormatMonths(a.opts.HorizonMonths)
	}

	fields := []struct{ label, value string }{
		{"Opening Balance", cli.FormatMoney(a.project.OpeningBalance, a.project.Currency)},
		{"Horizon", cli.FormatMonths(a.project.Months())},
		{"Project Name", a.project.Name},
		{"Theme", t.Name},
		{"Horizon Override", override},
		{"Display Currency", a.cfg.Display.Currency},
	}

	innerW := components.CardInnerWidth(cw)
	var formBody strings.Builder
	for i, f := range fields {
		switch i {
		case settingsFieldOpening:
			formBody.WriteString(sectionStyle.Render("Project"))
			formBody.WriteString("\n")
		case settingsFieldTheme:
			formBody.WriteString("\n")
			formBody.WriteString(sectionStyle.Render("Preferences"))
			formBody.WriteString("\n")
		}

		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker + label + value)
			if pad := innerW - lipgloss.Width(marker) - lipgloss.Width(label) - lipgloss.Width(value); pad > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Project ID:      ") + valueStyle.Render(a.project.ID) + "\n")
	infoBody.WriteString(labelStyle.Render("Entries:         ") + valueStyle.Render(cli.FormatNumber(int64(len(a.project.Entries)))) + "\n")
	infoBody.WriteString(labelStyle.Render("Last updated:    ") + valueStyle.Render(cli.FormatUpdated(a.project.LastUpdated)) + "\n")
	infoBody.WriteString(labelStyle.Render("Load time:       ") + valueStyle.Render(fmt.Sprintf("%dms", a.loadTime.Milliseconds())) + "\n")
	infoBody.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(config.Path()))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", infoBody.String(), cw))
	return b.String()
}
