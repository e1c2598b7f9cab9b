package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/config"
	"github.com/theirongolddev/cashflowcast/internal/form"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/sample"
	"github.com/theirongolddev/cashflowcast/internal/store"
	"github.com/theirongolddev/cashflowcast/internal/tui/components"
)

type fakeStore struct {
	projects      []model.Project
	countErr      error
	savedEntries  []model.Entry
	savedProjects []model.Project
	deleted       []string
}

func (f *fakeStore) Project(_ context.Context, ref string) (model.Project, error) {
	for _, p := range f.projects {
		if p.ID == ref || p.Name == ref {
			return p, nil
		}
	}
	return model.Project{}, fmt.Errorf("project %q: %w", ref, store.ErrNotFound)
}

func (f *fakeStore) ProjectCount(context.Context) (int, error) {
	return len(f.projects), f.countErr
}

func (f *fakeStore) SaveProject(_ context.Context, p model.Project) error {
	f.savedProjects = append(f.savedProjects, p)
	return nil
}

func (f *fakeStore) SaveEntry(_ context.Context, _ string, e model.Entry) error {
	f.savedEntries = append(f.savedEntries, e)
	return nil
}

func (f *fakeStore) DeleteEntry(_ context.Context, _ string, entryID string) error {
	f.deleted = append(f.deleted, entryID)
	return nil
}

func testProject() model.Project {
	start := calendar.MustParse("2025-02-01")
	return model.Project{
		ID:             "p1",
		Name:           "Household",
		OpeningBalance: decimal.NewFromInt(2500),
		Currency:       "USD",
		HorizonMonths:  3,
		Entries: []model.Entry{
			{ID: "pay", Label: "Paycheck", Type: model.Income, Amount: decimal.NewFromInt(2200), StartDate: start,
				Recurrence: model.Recurrence{Kind: model.KindBiweekly}},
			{ID: "rent", Label: "Rent", Type: model.Expense, Amount: decimal.NewFromInt(1450), StartDate: start,
				Recurrence: model.Recurrence{Kind: model.KindMonthly, DayOfMonth: 1}},
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	next, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", m)
	}
	return next, cmd
}

// loadedApp returns an App with testProject loaded and today pinned.
func loadedApp(t *testing.T, st *fakeStore) App {
	t.Helper()
	a := NewApp(st, config.DefaultConfig(), Options{Project: "p1", Today: calendar.MustParse("2025-02-01")})
	a, _ = send(t, a, tea.WindowSizeMsg{Width: 130, Height: 50})
	a, _ = send(t, a, ProjectLoadedMsg{Project: testProject()})
	return a
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			x := pos + w/2
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1
		}
		if got := a.tabAtX(pos + 50); got != -1 {
			t.Errorf("tabAtX past the bar = %d, want -1", got)
		}
	}
}

func TestProjectLoadedComputesForecast(t *testing.T) {
	a := loadedApp(t, &fakeStore{projects: []model.Project{testProject()}})

	if !a.loaded || a.loadErr != nil {
		t.Fatalf("loaded=%v loadErr=%v", a.loaded, a.loadErr)
	}
	if len(a.result.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(a.result.Rows))
	}
	if !a.summary.EndingBalance.Equal(decimal.NewFromInt(13550)) {
		t.Errorf("EndingBalance = %s, want 13550", a.summary.EndingBalance)
	}
	if len(a.entries.items) != 2 {
		t.Errorf("entries = %d, want 2", len(a.entries.items))
	}

	view := a.View()
	for _, want := range []string{"Monthly Forecast", "Feb 2025", "Household", "as of 2025-02-01"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestHorizonOverrideFromOptions(t *testing.T) {
	a := NewApp(&fakeStore{}, config.DefaultConfig(), Options{Today: calendar.MustParse("2025-02-01"), HorizonMonths: 6})
	a, _ = send(t, a, ProjectLoadedMsg{Project: testProject()})
	if len(a.result.Rows) != 6 {
		t.Errorf("rows = %d, want 6", len(a.result.Rows))
	}
}

func TestLoadProjectCmd(t *testing.T) {
	tests := []struct {
		name      string
		st        *fakeStore
		ref       string
		needSetup bool
		wantErr   string
	}{
		{name: "empty database", st: &fakeStore{}, ref: "p1", needSetup: true},
		{name: "no selection", st: &fakeStore{projects: []model.Project{testProject()}}, wantErr: "no project selected"},
		{name: "unknown", st: &fakeStore{projects: []model.Project{testProject()}}, ref: "nope", wantErr: "not found"},
		{name: "by name", st: &fakeStore{projects: []model.Project{testProject()}}, ref: "Household"},
		{name: "count fails", st: &fakeStore{countErr: errors.New("disk gone")}, ref: "p1", wantErr: "counting projects"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := loadProjectCmd(tt.st, tt.ref)().(ProjectLoadedMsg)
			if !ok {
				t.Fatal("loadProjectCmd did not return ProjectLoadedMsg")
			}
			if msg.NeedSetup != tt.needSetup {
				t.Errorf("NeedSetup = %v, want %v", msg.NeedSetup, tt.needSetup)
			}
			switch {
			case tt.wantErr == "" && msg.Err != nil:
				t.Errorf("Err = %v, want nil", msg.Err)
			case tt.wantErr != "" && (msg.Err == nil || !strings.Contains(msg.Err.Error(), tt.wantErr)):
				t.Errorf("Err = %v, want %q", msg.Err, tt.wantErr)
			}
			if tt.wantErr == "" && !tt.needSetup && msg.Project.ID != "p1" {
				t.Errorf("Project.ID = %q, want p1", msg.Project.ID)
			}
		})
	}
}

func TestTabKeys(t *testing.T) {
	a := loadedApp(t, &fakeStore{})
	tests := []struct {
		key  string
		want int
	}{
		{"e", tabEntries},
		{"c", tabSchedule},
		{"x", tabSettings},
		{"f", tabForecast},
	}
	for _, tt := range tests {
		a, _ = send(t, a, key(tt.key))
		if a.activeTab != tt.want {
			t.Errorf("after %q activeTab = %d, want %d", tt.key, a.activeTab, tt.want)
		}
	}

	_, cmd := send(t, a, key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestDeleteEntryFlow(t *testing.T) {
	st := &fakeStore{projects: []model.Project{testProject()}}
	a := loadedApp(t, st)

	a, _ = send(t, a, key("e"))
	a, _ = send(t, a, key("j"))
	a, _ = send(t, a, key("d"))
	if !a.entries.confirmDelete {
		t.Fatal("d did not ask for confirmation")
	}

	a, cmd := send(t, a, key("y"))
	if a.entries.confirmDelete || cmd == nil {
		t.Fatalf("confirmDelete=%v cmd=%v", a.entries.confirmDelete, cmd)
	}
	msg, ok := cmd().(EntryDeletedMsg)
	if !ok || msg.Err != nil || msg.Label != "Rent" {
		t.Fatalf("delete msg = %+v", msg)
	}
	if len(st.deleted) != 1 || st.deleted[0] != "rent" {
		t.Errorf("deleted = %v, want [rent]", st.deleted)
	}

	a, cmd = send(t, a, msg)
	if a.flash != "Deleted Rent" || cmd == nil {
		t.Errorf("flash = %q, reload cmd = %v", a.flash, cmd)
	}
}

func TestDeleteCancelled(t *testing.T) {
	a := loadedApp(t, &fakeStore{})
	a, _ = send(t, a, key("e"))
	a, _ = send(t, a, key("d"))
	a, cmd := send(t, a, key("n"))
	if a.entries.confirmDelete || cmd != nil {
		t.Errorf("confirmDelete=%v cmd=%v, want cancelled", a.entries.confirmDelete, cmd)
	}
	if a.entryForm != nil {
		t.Error("cancelling a delete opened the entry form")
	}
}

func TestNewEntryFormOpensAndCancels(t *testing.T) {
	a := loadedApp(t, &fakeStore{})
	a, _ = send(t, a, key("e"))
	a, _ = send(t, a, key("n"))
	if a.entryForm == nil || a.entryVals == nil {
		t.Fatal("n did not open the entry form")
	}
	if a.entryVals.Type != model.Expense || a.entryVals.StartDate != "2025-02-01" {
		t.Errorf("form defaults = %+v", *a.entryVals)
	}

	a, _ = send(t, a, key("esc"))
	if a.entryForm != nil {
		t.Error("esc did not close the entry form")
	}
}

func TestSaveEntryCmd(t *testing.T) {
	st := &fakeStore{}
	vals := form.Blank(calendar.MustParse("2025-02-01"), form.WithType(model.Expense))
	vals.Label = "Gym"
	vals.Amount = "$55"
	vals.DayOfMonth = "3"

	msg, ok := saveEntryCmd(st, testProject(), vals)().(EntrySavedMsg)
	if !ok || msg.Err != nil || msg.Label != "Gym" {
		t.Fatalf("msg = %+v", msg)
	}
	if len(st.savedEntries) != 1 {
		t.Fatalf("saved = %d, want 1", len(st.savedEntries))
	}
	e := st.savedEntries[0]
	if !e.Amount.Equal(decimal.NewFromInt(55)) || e.Type != model.Expense || e.Recurrence.DayOfMonth != 3 || e.Currency != "USD" {
		t.Errorf("saved entry = %+v", e)
	}

	vals.StartDate = "soon"
	msg = saveEntryCmd(st, testProject(), vals)().(EntrySavedMsg)
	if msg.Err == nil {
		t.Error("bad start date saved without error")
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) error
		in   string
		ok   bool
	}{
		{"amount plain", validateAmount, "1450", true},
		{"amount symbol", validateAmount, "$1,450.50", true},
		{"amount negative", validateAmount, "-3", false},
		{"amount text", validateAmount, "lots", false},
		{"amount nan", validateAmount, "NaN", false},
		{"opening negative", validateOpening, "-200", true},
		{"opening empty", validateOpening, "", true},
		{"start required", validateDate(true), "", false},
		{"end optional", validateDate(false), "", true},
		{"date valid", validateDate(true), "2025-02-28", true},
		{"date invalid", validateDate(false), "2025-02-30", false},
		{"interval", validateInterval, "3", true},
		{"interval zero", validateInterval, "0", false},
		{"day", validateDay, "31", true},
		{"day too big", validateDay, "32", false},
		{"currency", validateCurrency, "eur", true},
		{"currency unknown", validateCurrency, "zzz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.in)
			if (err == nil) != tt.ok {
				t.Errorf("validate(%q) = %v, want ok=%v", tt.in, err, tt.ok)
			}
		})
	}
}

func TestOutflowShares(t *testing.T) {
	p := testProject()
	p.Entries = append(p.Entries, model.Entry{
		ID: "gym", Label: "Gym", Type: model.Expense, Amount: decimal.NewFromInt(50),
		StartDate:  calendar.MustParse("2025-02-03"),
		Recurrence: model.Recurrence{Kind: model.KindMonthly, DayOfMonth: 3},
	})

	shares := outflowShares(p, calendar.MustParse("2025-02-01"))
	if len(shares) != 2 {
		t.Fatalf("shares = %d, want 2", len(shares))
	}
	if shares[0].Label != "Rent" || !shares[0].Total.Equal(decimal.NewFromInt(4350)) {
		t.Errorf("first share = %+v, want Rent 4350", shares[0])
	}
	if shares[1].Label != "Gym" || !shares[1].Total.Equal(decimal.NewFromInt(150)) {
		t.Errorf("second share = %+v, want Gym 150", shares[1])
	}
	if sum := shares[0].Share + shares[1].Share; math.Abs(sum-1) > 1e-9 {
		t.Errorf("shares sum to %.4f, want 1", sum)
	}
}

func TestSettingsHorizonOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	a := loadedApp(t, &fakeStore{})
	a, _ = send(t, a, key("x"))
	for range settingsFieldHorizonOverride {
		a, _ = send(t, a, key("j"))
	}
	a, _ = send(t, a, key("enter"))
	if !a.settings.editing {
		t.Fatal("enter did not start editing")
	}

	a.settings.input.SetValue("6")
	a, _ = send(t, a, key("enter"))
	if a.settings.editing || a.settings.saveErr != nil {
		t.Fatalf("editing=%v saveErr=%v", a.settings.editing, a.settings.saveErr)
	}
	if len(a.result.Rows) != 6 {
		t.Errorf("rows = %d, want 6", len(a.result.Rows))
	}
	if _, err := os.Stat(config.Path()); err != nil {
		t.Errorf("config not written: %v", err)
	}
}

func TestSettingsProjectFieldSaves(t *testing.T) {
	st := &fakeStore{}
	a := loadedApp(t, st)
	a, _ = send(t, a, key("x"))
	a, _ = send(t, a, key("enter"))
	a.settings.input.SetValue("-200")

	a, cmd := send(t, a, key("enter"))
	if cmd == nil {
		t.Fatal("opening balance edit returned no save command")
	}
	if msg := cmd().(EntrySavedMsg); msg.Err != nil {
		t.Fatalf("save: %v", msg.Err)
	}
	if len(st.savedProjects) != 1 || !st.savedProjects[0].OpeningBalance.Equal(decimal.NewFromInt(-200)) {
		t.Errorf("saved projects = %+v", st.savedProjects)
	}
	if a.settings.saveErr != nil {
		t.Errorf("saveErr = %v", a.settings.saveErr)
	}
}

func TestApplySetup(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	today := calendar.MustParse("2025-02-17")

	t.Run("sample", func(t *testing.T) {
		st := &fakeStore{}
		vals := DefaultSetupValues(config.DefaultConfig())
		vals.Theme = "tokyo-night"

		p, cfg, err := ApplySetup(context.Background(), st, config.DefaultConfig(), *vals, today)
		if err != nil {
			t.Fatalf("ApplySetup: %v", err)
		}
		if p.ID != sample.ProjectID || cfg.General.DefaultProject != sample.ProjectID {
			t.Errorf("project %q, default %q", p.ID, cfg.General.DefaultProject)
		}
		if cfg.Display.Theme != "tokyo-night" {
			t.Errorf("Theme = %q", cfg.Display.Theme)
		}
		if len(st.savedProjects) != 1 {
			t.Errorf("saved projects = %d, want 1", len(st.savedProjects))
		}
		if _, err := os.Stat(filepath.Join(config.Dir(), "config.toml")); err != nil {
			t.Errorf("config not written: %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		vals := SetupValues{Name: " Travel ", OpeningBalance: "-200", Currency: "eur", HorizonMonths: 24, Theme: "bogus"}
		p, cfg, err := ApplySetup(context.Background(), &fakeStore{}, config.DefaultConfig(), vals, today)
		if err != nil {
			t.Fatalf("ApplySetup: %v", err)
		}
		if p.Name != "Travel" || !p.OpeningBalance.Equal(decimal.NewFromInt(-200)) || p.Currency != "EUR" || p.HorizonMonths != 24 {
			t.Errorf("project = %+v", p)
		}
		if p.ID == "" || cfg.General.DefaultProject != p.ID {
			t.Errorf("ID %q, default %q", p.ID, cfg.General.DefaultProject)
		}
		if cfg.Display.Theme != config.DefaultConfig().Display.Theme {
			t.Errorf("invalid theme was saved: %q", cfg.Display.Theme)
		}
	})
}

func TestSetupDoneMsg(t *testing.T) {
	a := NewApp(&fakeStore{}, config.DefaultConfig(), Options{Today: calendar.MustParse("2025-02-01")})
	a, _ = send(t, a, SetupDoneMsg{Project: testProject(), Config: config.DefaultConfig()})
	if a.opts.Project != "p1" || len(a.result.Rows) != 3 {
		t.Errorf("project = %q rows = %d", a.opts.Project, len(a.result.Rows))
	}
	if !strings.HasPrefix(a.flash, "Created") {
		t.Errorf("flash = %q", a.flash)
	}
}
