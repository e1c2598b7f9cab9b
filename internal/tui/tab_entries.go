package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/cli"
	"github.com/theirongolddev/cashflowcast/internal/forecast"
	"github.com/theirongolddev/cashflowcast/internal/form"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/recurrence"
	"github.com/theirongolddev/cashflowcast/internal/tui/components"
	"github.com/theirongolddev/cashflowcast/internal/tui/theme"
)

// outflowShare is one expense entry's part of the scheduled outflow.
type outflowShare struct {
	Label string
	Total decimal.Decimal
	Share float64
}

// entriesState tracks the entries tab.
type entriesState struct {
	table         table.Model
	items         []model.Entry
	currency      string
	shares        []outflowShare
	confirmDelete bool
}

func newEntriesState() entriesState {
	t := table.New(
		table.WithColumns(entryColumns(100)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	return entriesState{table: t}
}

func entryColumns(width int) []table.Column {
	fixed := 9 + 12 + 22 + 11 + 11
	label := max(14, width-fixed-14)
	return []table.Column{
		{Title: "Label", Width: label},
		{Title: "Type", Width: 9},
		{Title: "Amount", Width: 12},
		{Title: "Repeats", Width: 22},
		{Title: "Start", Width: 11},
		{Title: "End", Width: 11},
	}
}

// sync rebuilds the table rows and outflow shares from p.
func (s *entriesState) sync(p model.Project, today calendar.Date) {
	s.items = append([]model.Entry(nil), p.Entries...)
	s.currency = p.Currency

	rows := make([]table.Row, len(s.items))
	for i, e := range s.items {
		end := "open"
		if e.EndDate != nil {
			end = e.EndDate.String()
		}
		rows[i] = table.Row{
			e.Label,
			string(e.Type),
			cli.FormatMoney(e.Amount, p.Currency),
			recurrence.Describe(e.Recurrence),
			e.StartDate.String(),
			end,
		}
	}
	s.table.SetRows(rows)
	if c := s.table.Cursor(); c >= len(rows) {
		s.table.SetCursor(max(len(rows)-1, 0))
	}

	s.shares = outflowShares(p, today)
}

func (s *entriesState) resize(width, height int) {
	s.table.SetColumns(entryColumns(width))
	s.table.SetWidth(components.CardInnerWidth(width))
	s.table.SetHeight(max(5, height/2-4))
}

// selected returns the entry under the cursor.
func (s entriesState) selected() (model.Entry, bool) {
	c := s.table.Cursor()
	if c < 0 || c >= len(s.items) {
		return model.Entry{}, false
	}
	return s.items[c], true
}

// outflowShares totals each expense entry over the project's forecast
// window and returns them largest first.
func outflowShares(p model.Project, today calendar.Date) []outflowShare {
	base := forecast.PeriodStart(p.Entries, today)
	months := p.Months()

	var (
		shares []outflowShare
		total  decimal.Decimal
	)
	for _, e := range p.Entries {
		if e.Type != model.Expense {
			continue
		}
		_, rows := forecast.Schedule([]model.Entry{e}, months, base)
		if len(rows) == 0 {
			continue
		}
		spent := rows[len(rows)-1].RunningTotal.Neg()
		if spent.Sign() <= 0 {
			continue
		}
		shares = append(shares, outflowShare{Label: e.Label, Total: spent})
		total = total.Add(spent)
	}
	for i := range shares {
		shares[i].Share = shares[i].Total.Div(total).InexactFloat64()
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Total.GreaterThan(shares[j].Total) })
	return shares
}

func (a App) updateEntriesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "n":
		m, cmd := a.openEntryForm(form.Blank(a.today, form.WithType(model.Expense)), "New entry")
		return m, cmd, true
	case "enter":
		e, ok := a.entries.selected()
		if !ok {
			return a, nil, true
		}
		m, cmd := a.openEntryForm(form.FromEntry(e), "Edit "+e.Label)
		return m, cmd, true
	case "d", "delete":
		if _, ok := a.entries.selected(); ok {
			a.entries.confirmDelete = true
		}
		return a, nil, true
	case "j", "k", "up", "down", "g", "G", "home", "end", "pgup", "pgdown", "ctrl+d", "ctrl+u":
		var cmd tea.Cmd
		a.entries.table, cmd = a.entries.table.Update(msg)
		return a, cmd, true
	}
	return a, nil, false
}

func (a App) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.entries.confirmDelete = false
	e, ok := a.entries.selected()
	if !ok || msg.String() != "y" {
		return a, nil
	}
	return a, deleteEntryCmd(a.store, a.project.ID, e)
}

func deleteEntryCmd(st Store, projectID string, e model.Entry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return EntryDeletedMsg{Label: e.Label, Err: st.DeleteEntry(ctx, projectID, e.ID)}
	}
}

func (a App) renderEntriesTab(cw int) string {
	t := theme.Active
	var b strings.Builder

	tableStyles := table.DefaultStyles()
	tableStyles.Header = tableStyles.Header.
		Foreground(t.Accent).
		BorderForeground(t.Border).
		BorderBottom(true).
		Bold(true)
	tableStyles.Selected = tableStyles.Selected.
		Foreground(t.TextPrimary).
		Background(t.SurfaceBright).
		Bold(true)
	tableStyles.Cell = tableStyles.Cell.Foreground(t.TextMuted)
	tbl := a.entries.table
	tbl.SetStyles(tableStyles)

	title := fmt.Sprintf("Entries (%d)", len(a.entries.items))
	body := tbl.View()
	if len(a.entries.items) == 0 {
		body = lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).
			Render("No entries yet. Press n to add one.")
	}

	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	if a.entries.confirmDelete {
		if e, ok := a.entries.selected(); ok {
			warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Bold(true)
			body += "\n" + warn.Render(fmt.Sprintf("Delete %q? [y] confirm, any other key cancels", e.Label))
		}
	} else {
		body += "\n" + hint.Render("[n] new  [Enter] edit  [d] delete  [j/k] move")
	}
	b.WriteString(components.ContentCard(title, body, cw))
	b.WriteString("\n")

	if len(a.entries.shares) > 0 {
		inner := components.CardInnerWidth(cw)
		labelW := min(24, inner/4)
		barW := max(10, inner-labelW-22)

		var shareBody strings.Builder
		for i, sh := range a.entries.shares {
			if i > 0 {
				shareBody.WriteString("\n")
			}
			shareBody.WriteString(components.ShareBar(sh.Label, sh.Share, cli.FormatMoney(sh.Total, a.entries.currency), labelW, barW))
		}
		b.WriteString(components.ContentCard("Share of Outflow", shareBody.String(), cw))
	}

	return b.String()
}
