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

func (a App) renderForecastTab(cw int) string {
	t := theme.Active
	p := a.forecastProject()
	cur := p.Currency
	sum := a.summary
	rows := a.result.Rows
	var b strings.Builder

	// Row 1: metric cards
	lowestValue, lowestNote := "-", ""
	if low, ok := forecast.LowestBalance(rows); ok {
		lowestValue = cli.FormatMoney(low.Balance, cur)
		lowestNote = "in " + low.Label
	}
	metrics := []components.Metric{
		{Label: "Opening", Value: cli.FormatMoney(sum.OpeningBalance, cur), Note: cli.FormatMonths(len(rows))},
		{Label: "Income", Value: cli.FormatMoney(sum.TotalIncome, cur), Color: t.Green},
		{Label: "Expenses", Value: cli.FormatMoney(sum.TotalExpense, cur), Color: t.Orange},
		{
			Label: "Ending",
			Value: cli.FormatMoney(sum.EndingBalance, cur),
			Note:  cli.FormatDelta(sum.EndingBalance, sum.OpeningBalance, cur),
			Color: t.AmountColor(sum.EndingBalance),
		},
		{Label: "Lowest", Value: lowestValue, Note: lowestNote},
	}
	if a.isCompactLayout() {
		b.WriteString(components.MetricCardRow(metrics[:3], cw))
		b.WriteString("\n")
		b.WriteString(components.MetricCardRow(metrics[3:], cw))
	} else {
		b.WriteString(components.MetricCardRow(metrics, cw))
	}
	b.WriteString("\n")

	if len(a.result.Truncated) > 0 {
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		var names []string
		for _, tr := range a.result.Truncated {
			names = append(names, tr.Label)
		}
		b.WriteString(components.ContentCard("Incomplete",
			warn.Render("Stopped early while expanding: "+strings.Join(names, ", ")), cw))
		b.WriteString("\n")
	}

	if len(rows) == 0 {
		return b.String()
	}

	// Row 2: balance chart
	values := make([]float64, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		values[i] = r.Balance.InexactFloat64()
		labels[i] = r.PeriodStart.Format("Jan")
	}
	chart := components.BarChart(values, labels, t.Blue, t.Red, components.CardInnerWidth(cw), 8)
	b.WriteString(components.ContentCard("Month-end Balance", chart, cw))
	b.WriteString("\n")

	// Row 3: monthly table
	b.WriteString(components.ContentCard("Monthly Forecast", a.renderForecastRows(components.CardInnerWidth(cw)), cw))

	return b.String()
}

func (a App) renderForecastRows(innerW int) string {
	t := theme.Active
	cur := a.project.Currency

	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	colW := max(12, (innerW-10)/4)
	line := func(style lipgloss.Style, cells ...string) string {
		out := style.Render(fmt.Sprintf("%-10s", cells[0]))
		for _, c := range cells[1:] {
			out += style.Render(fmt.Sprintf("%*s", colW, c))
		}
		return out
	}

	var b strings.Builder
	b.WriteString(line(headStyle, "Month", "Income", "Expenses", "Net", "Balance"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", min(innerW, 10+4*colW))))
	for _, r := range a.result.Rows {
		b.WriteString("\n")
		b.WriteString(cellStyle.Render(fmt.Sprintf("%-10s", r.Label)))
		b.WriteString(cellStyle.Render(fmt.Sprintf("%*s", colW, cli.FormatMoney(r.Incomes, cur))))
		b.WriteString(cellStyle.Render(fmt.Sprintf("%*s", colW, cli.FormatMoney(r.Expenses, cur))))
		netStyle := cellStyle.Foreground(t.AmountColor(r.Net))
		b.WriteString(netStyle.Render(fmt.Sprintf("%*s", colW, cli.FormatSignedMoney(r.Net, cur))))
		balStyle := cellStyle.Foreground(t.AmountColor(r.Balance)).Bold(true)
		b.WriteString(balStyle.Render(fmt.Sprintf("%*s", colW, cli.FormatMoney(r.Balance, cur))))
	}
	return b.String()
}
