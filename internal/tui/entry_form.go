package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/form"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/recurrence"
	"github.com/theirongolddev/cashflowcast/internal/tui/theme"
)

// newEntryForm builds the add/edit form bound to vals.
func newEntryForm(vals *form.State, title, currency string) *huh.Form {
	kinds := make([]huh.Option[model.RecurrenceKind], 0, len(model.RecurrenceKinds))
	for _, k := range model.RecurrenceKinds {
		kinds = append(kinds, huh.NewOption(kindTitle(k), k))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title(title),
			huh.NewInput().
				Title("Label").
				Placeholder(form.DefaultLabel).
				Value(&vals.Label),
			huh.NewSelect[model.EntryType]().
				Title("Type").
				Options(
					huh.NewOption("Income", model.Income),
					huh.NewOption("Expense", model.Expense),
				).
				Value(&vals.Type),
			huh.NewInput().
				Title("Amount").
				Description("In "+currency+", non-negative").
				Value(&vals.Amount).
				Validate(validateAmount),
			huh.NewInput().
				Title("Start date").
				Placeholder("YYYY-MM-DD").
				Value(&vals.StartDate).
				Validate(validateDate(true)),
			huh.NewInput().
				Title("End date").
				Description("Leave empty for open-ended").
				Placeholder("YYYY-MM-DD").
				Value(&vals.EndDate).
				Validate(validateDate(false)),
		),
		huh.NewGroup(
			huh.NewSelect[model.RecurrenceKind]().
				Title("Repeats").
				Options(kinds...).
				Value(&vals.RecurrenceKind),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Every").
				DescriptionFunc(func() string {
					if vals.RecurrenceKind == model.KindEveryDays {
						return "Number of days between occurrences"
					}
					return "Number of weeks between occurrences"
				}, &vals.RecurrenceKind).
				Value(&vals.Interval).
				Validate(validateInterval),
		).WithHideFunc(func() bool { return !vals.RecurrenceKind.HasInterval() }),
		huh.NewGroup(
			huh.NewInput().
				Title("Day of month").
				Description("Short months use their last day").
				Value(&vals.DayOfMonth).
				Validate(validateDay),
		).WithHideFunc(func() bool { return vals.RecurrenceKind != model.KindMonthly }),
		huh.NewGroup(
			huh.NewText().
				Title("Notes").
				Value(&vals.Notes),
		),
	).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

func kindTitle(k model.RecurrenceKind) string {
	switch k {
	case model.KindEveryWeeks:
		return "Every N weeks"
	case model.KindEveryDays:
		return "Every N days"
	case model.KindMonthly:
		return "Monthly"
	}
	return recurrence.Describe(model.Recurrence{Kind: k})
}

func validateAmount(s string) error {
	v, err := form.ParseDecimal(s)
	if err != nil {
		return errors.New("enter a number")
	}
	if v.IsNegative() {
		return errors.New("amount cannot be negative")
	}
	return nil
}

func validateDate(required bool) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			if required {
				return errors.New("date is required")
			}
			return nil
		}
		if _, err := calendar.Parse(s); err != nil {
			return errors.New("use YYYY-MM-DD")
		}
		return nil
	}
}

func validateInterval(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}

func validateDay(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 31 {
		return errors.New("enter a day between 1 and 31")
	}
	return nil
}

func (a App) openEntryForm(vals form.State, title string) (tea.Model, tea.Cmd) {
	a.entryVals = &vals
	a.entryForm = newEntryForm(a.entryVals, title, a.project.Currency)
	if a.width > 0 {
		a.entryForm = a.entryForm.WithWidth(min(a.width, 80)).WithHeight(a.height)
	}
	return a, a.entryForm.Init()
}

func (a App) updateEntryForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.entryForm = nil
		a.entryVals = nil
		a.setFlash("Edit cancelled", false)
		return a, nil
	}

	f, cmd := a.entryForm.Update(msg)
	if hf, ok := f.(*huh.Form); ok {
		a.entryForm = hf
	}

	switch a.entryForm.State {
	case huh.StateCompleted:
		vals := *a.entryVals
		a.entryForm = nil
		a.entryVals = nil
		return a, saveEntryCmd(a.store, a.project, vals)
	case huh.StateAborted:
		a.entryForm = nil
		a.entryVals = nil
		return a, nil
	}
	return a, cmd
}

func (a App) viewEntryForm() string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2).
		Render(a.entryForm.View())
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// saveEntryCmd converts vals into an entry of p and writes it.
func saveEntryCmd(st Store, p model.Project, vals form.State) tea.Cmd {
	return func() tea.Msg {
		e, err := vals.Entry(p)
		if err != nil {
			return EntrySavedMsg{Err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return EntrySavedMsg{Label: e.Label, Err: st.SaveEntry(ctx, p.ID, e)}
	}
}
