package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashflowcast/internal/cli"
	"github.com/theirongolddev/cashflowcast/internal/forecast"
	"github.com/theirongolddev/cashflowcast/internal/tui/components"
	"github.com/theirongolddev/cashflowcast/internal/tui/theme"
)

// renderScheduleTab shows signed monthly totals from today's month onward,
// without an opening balance.
func (a App) renderScheduleTab(cw int) string {
	t := theme.Active
	p := a.forecastProject()
	cur := p.Currency

	_, rows := forecast.Schedule(p.Entries, p.Months(), a.today)

	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Total.InexactFloat64()
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var body strings.Builder
	body.WriteString(labelStyle.Render("Monthly totals  "))
	body.WriteString(components.Sparkline(values, t.Accent))
	body.WriteString("\n\n")
	body.WriteString(labelStyle.Render(fmt.Sprintf("%-10s%14s%16s", "Month", "Total", "Running")))
	body.WriteString("\n")
	body.WriteString(dimStyle.Render(strings.Repeat("─", 40)))
	for _, r := range rows {
		body.WriteString("\n")
		body.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", r.MonthLabel)))
		body.WriteString(labelStyle.Foreground(t.AmountColor(r.Total)).
			Render(fmt.Sprintf("%14s", cli.FormatSignedMoney(r.Total, cur))))
		body.WriteString(labelStyle.Foreground(t.AmountColor(r.RunningTotal)).Bold(true).
			Render(fmt.Sprintf("%16s", cli.FormatMoney(r.RunningTotal, cur))))
	}

	title := fmt.Sprintf("Schedule from %s (%s)", a.today.Format("Jan 2006"), cli.FormatMonths(len(rows)))
	return components.ContentCard(title, body.String(), cw)
}
