// Package tui provides the interactive Bubble Tea dashboard for cashflowcast.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/config"
	"github.com/theirongolddev/cashflowcast/internal/forecast"
	"github.com/theirongolddev/cashflowcast/internal/form"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/store"
	"github.com/theirongolddev/cashflowcast/internal/tui/components"
	"github.com/theirongolddev/cashflowcast/internal/tui/theme"
)

// Store is the persistence the dashboard reads and writes.
// *store.Store satisfies it.
type Store interface {
	Project(ctx context.Context, idOrName string) (model.Project, error)
	ProjectCount(ctx context.Context) (int, error)
	SaveProject(ctx context.Context, p model.Project) error
	SaveEntry(ctx context.Context, projectID string, e model.Entry) error
	DeleteEntry(ctx context.Context, projectID, entryID string) error
}

// Options configures one dashboard session.
type Options struct {
	// Project is an ID or name; empty uses the configured default.
	Project string
	// Today pins the forecast date. The zero value follows the clock.
	Today calendar.Date
	// HorizonMonths overrides the project's horizon when positive.
	HorizonMonths int
}

// ProjectLoadedMsg is sent when the project load finishes.
type ProjectLoadedMsg struct {
	Project   model.Project
	Err       error
	NeedSetup bool
	LoadTime  time.Duration
}

// EntrySavedMsg is sent after an entry was written to the store.
type EntrySavedMsg struct {
	Label string
	Err   error
}

// EntryDeletedMsg is sent after an entry was removed from the store.
type EntryDeletedMsg struct {
	Label string
	Err   error
}

// App is the root Bubble Tea model.
type App struct {
	store Store
	opts  Options
	cfg   config.Config

	// Data
	project  model.Project
	result   forecast.Result
	summary  model.ForecastSummary
	today    calendar.Date
	loaded   bool
	loadErr  error
	loadTime time.Duration

	refreshing bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	flash     string
	flashWarn bool

	// Per-tab state
	entries  entriesState
	settings settingsState

	// Entry add/edit form (huh)
	entryForm *huh.Form
	entryVals *form.State

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 160

	minContentHeight = 5 // minimum content area height
)

const (
	tabForecast = iota
	tabEntries
	tabSchedule
	tabSettings
)

// NewApp creates a new TUI app model.
func NewApp(st Store, cfg config.Config, opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	if opts.Project == "" {
		opts.Project = cfg.General.DefaultProject
	}
	if opts.HorizonMonths <= 0 {
		opts.HorizonMonths = cfg.General.HorizonMonths
	}

	return App{
		store:    st,
		opts:     opts,
		cfg:      cfg,
		entries:  newEntriesState(),
		settings: newSettingsState(),
		spinner:  sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadProjectCmd(a.store, a.opts.Project),
		a.spinner.Tick,
		tickCmd(),
	)
}

// currentToday resolves the forecast date for this session.
func (a App) currentToday() calendar.Date {
	if !a.opts.Today.IsZero() {
		return a.opts.Today
	}
	return calendar.Today()
}

// forecastProject is the loaded project with the horizon override applied.
func (a App) forecastProject() model.Project {
	p := a.project
	if a.opts.HorizonMonths > 0 {
		p.HorizonMonths = a.opts.HorizonMonths
	}
	return p
}

func (a *App) recompute() {
	p := a.forecastProject()
	a.today = a.currentToday()
	a.result = forecast.Generate(p, a.today)
	a.summary = forecast.Summarise(a.result.Rows, p.OpeningBalance)
	a.entries.sync(p, a.today)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.entries.resize(a.contentWidth(), a.height)
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.entryForm != nil {
			a.entryForm = a.entryForm.WithWidth(min(msg.Width, 80)).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil || a.entryForm != nil {
			return a, nil
		}
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
			return a, nil
		}
		if a.activeTab == tabEntries {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				a.entries.table.MoveUp(1)
			case tea.MouseButtonWheelDown:
				a.entries.table.MoveDown(1)
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case ProjectLoadedMsg:
		a.loaded = true
		a.refreshing = false
		a.loadTime = msg.LoadTime
		if msg.NeedSetup {
			a.needSetup = true
			a.setupVals = DefaultSetupValues(a.cfg)
			a.setupForm = NewSetupForm(a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.project = msg.Project
			a.recompute()
		}
		return a, nil

	case SetupDoneMsg:
		a.needSetup = false
		if msg.Err != nil {
			a.loadErr = msg.Err
			return a, nil
		}
		a.cfg = msg.Config
		a.opts.Project = msg.Project.ID
		a.project = msg.Project
		a.loadErr = nil
		a.recompute()
		a.setFlash("Created "+msg.Project.Name, false)
		return a, nil

	case EntrySavedMsg:
		if msg.Err != nil {
			a.setFlash("Save failed: "+msg.Err.Error(), true)
			return a, nil
		}
		a.setFlash("Saved "+msg.Label, false)
		a.refreshing = true
		return a, loadProjectCmd(a.store, a.project.ID)

	case EntryDeletedMsg:
		if msg.Err != nil {
			a.setFlash("Delete failed: "+msg.Err.Error(), true)
			return a, nil
		}
		a.setFlash("Deleted "+msg.Label, false)
		a.refreshing = true
		return a, loadProjectCmd(a.store, a.project.ID)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		// Follow the clock across midnight when the date is not pinned.
		if a.loaded && a.loadErr == nil && a.opts.Today.IsZero() && !calendar.Today().Equal(a.today) {
			a.recompute()
		}
		return a, tickCmd()
	}

	// Forward unhandled messages to an open form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.entryForm != nil {
		return a.updateEntryForm(msg)
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// Open forms intercept all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.entryForm != nil {
		return a.updateEntryForm(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.entries.confirmDelete {
		return a.updateConfirmDelete(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if a.loadErr == nil {
		switch a.activeTab {
		case tabEntries:
			if m, cmd, handled := a.updateEntriesKey(msg); handled {
				return m, cmd
			}
		case tabSettings:
			switch key {
			case "j", "down":
				a.settings.cursor = min(a.settings.cursor+1, settingsFieldCount-1)
				return a, nil
			case "k", "up":
				a.settings.cursor = max(a.settings.cursor-1, 0)
				return a, nil
			case "enter":
				return a.settingsStartEdit()
			}
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			ref := a.opts.Project
			if a.project.ID != "" {
				ref = a.project.ID
			}
			return a, loadProjectCmd(a.store, ref)
		}
		return a, nil
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if runes := []rune(key); len(runes) == 1 {
		if idx := components.TabIdxByKey(runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a *App) setFlash(msg string, warn bool) {
	a.flash = msg
	a.flashWarn = warn
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.entryForm != nil {
		return a.viewEntryForm()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  cashflowcast needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ cashflowcast"))
	b.WriteString(subtitleStyle.Render(" · Cash-flow Forecast"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Loading project..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"f e c x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move selection"},
		}},
		{"Entries", []struct{ key, desc string }{
			{"n", "New entry"},
			{"Enter", "Edit selected entry"},
			{"d", "Delete selected entry"},
		}},
		{"General", []struct{ key, desc string }{
			{"r", "Reload project"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + project pill
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	pill := pillStyle.Render(" ")
	if a.project.ID != "" {
		p := a.forecastProject()
		pill += pillAccent.Render(p.Name) +
			pillStyle.Render(" │ ") + pillAccent.Render(fmt.Sprintf("%dmo", p.Months())) +
			pillStyle.Render(" │ ") + pillAccent.Render(p.Currency)
	}
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(pill)

	// 2. Status bar
	today := ""
	if !a.today.IsZero() {
		today = a.today.String()
	}
	statusBar := components.RenderStatusBar(w, a.flash, today, a.flashWarn)

	// 3. Content zone height
	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	// 4. Tab content
	var content string
	switch {
	case a.loadErr != nil:
		content = a.renderLoadError(cw)
	case a.activeTab == tabForecast:
		content = a.renderForecastTab(cw)
	case a.activeTab == tabEntries:
		content = a.renderEntriesTab(cw)
	case a.activeTab == tabSchedule:
		content = a.renderScheduleTab(cw)
	case a.activeTab == tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderLoadError(cw int) string {
	t := theme.Active
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	body := warn.Render(a.loadErr.Error())
	if errors.Is(a.loadErr, store.ErrNotFound) {
		body += "\n\n" + muted.Render("Create one with `cashflowcast projects create` or `cashflowcast sample`.")
	}
	return components.ContentCard("Could not load project", body, cw)
}

// ─── Helpers ────────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadProjectCmd loads ref from the store. An empty database asks for the
// setup wizard instead of reporting a missing project.
func loadProjectCmd(st Store, ref string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		n, err := st.ProjectCount(ctx)
		if err != nil {
			return ProjectLoadedMsg{Err: fmt.Errorf("counting projects: %w", err), LoadTime: time.Since(start)}
		}
		if n == 0 {
			return ProjectLoadedMsg{NeedSetup: true, LoadTime: time.Since(start)}
		}
		if ref == "" {
			return ProjectLoadedMsg{
				Err:      errors.New("no project selected: pass --project or run `cashflowcast projects use`"),
				LoadTime: time.Since(start),
			}
		}

		p, err := st.Project(ctx, ref)
		if err != nil {
			return ProjectLoadedMsg{Err: fmt.Errorf("loading project %q: %w", ref, err), LoadTime: time.Since(start)}
		}
		return ProjectLoadedMsg{Project: p, LoadTime: time.Since(start)}
	}
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // one-column separator
	}
	return -1
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
