// Package forecast turns a project's recurring entries into monthly rows
// with a running balance.
package forecast

import (
	"time"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/recurrence"
)

// MaxEnumerateSteps caps how many occurrences are enumerated per entry.
// Enumeration stops there and the entry is reported in Result.Truncated.
const MaxEnumerateSteps = 5000

// LabelLayout formats ForecastRow.Label.
const LabelLayout = "Jan 2006"

// Result is the output of Generate.
type Result struct {
	Rows      []model.ForecastRow `json:"rows"`
	Truncated []Truncation        `json:"truncated,omitempty"`
}

// Truncation records an entry whose enumeration hit an iteration guard.
type Truncation struct {
	EntryID string `json:"entryId"`
	Label   string `json:"label"`
	Guard   string `json:"guard"` // "normalize" or "enumerate"
}

type monthKey struct {
	year  int
	month time.Month
}

func keyOf(d calendar.Date) monthKey {
	return monthKey{year: d.Year(), month: d.Month()}
}

// PeriodStart returns the first month of a forecast: the current month, or
// an earlier month if some entry starts before it.
func PeriodStart(entries []model.Entry, today calendar.Date) calendar.Date {
	start := today.StartOfMonth()
	for _, e := range entries {
		start = calendar.Min(start, e.StartDate.StartOfMonth())
	}
	return start
}

// Generate builds the monthly forecast for p as seen on today. The project
// and its entries are only read.
func Generate(p model.Project, today calendar.Date) Result {
	periodStart := PeriodStart(p.Entries, today)
	months := p.Months()

	rows := make([]model.ForecastRow, months)
	index := make(map[monthKey]int, months)
	for i := range rows {
		monthStart := periodStart.AddMonths(i)
		rows[i] = model.ForecastRow{
			PeriodStart: monthStart,
			Label:       monthStart.Format(LabelLayout),
		}
		index[keyOf(monthStart)] = i
	}
	horizonEnd := periodStart.AddMonths(months - 1).EndOfMonth()

	var res Result
	for _, entry := range p.Entries {
		first, ok, exhausted := recurrence.FirstOccurrenceDetailed(entry, periodStart)
		if exhausted {
			res.Truncated = append(res.Truncated, Truncation{EntryID: entry.ID, Label: entry.Label, Guard: "normalize"})
		}
		if !ok {
			continue
		}
		if !foldEntry(rows, index, entry, first, horizonEnd) {
			res.Truncated = append(res.Truncated, Truncation{EntryID: entry.ID, Label: entry.Label, Guard: "enumerate"})
		}
	}

	running := p.OpeningBalance
	for i := range rows {
		rows[i].Net = rows[i].Incomes.Sub(rows[i].Expenses)
		running = running.Add(rows[i].Net)
		rows[i].Balance = running
	}

	res.Rows = rows
	return res
}

// foldEntry adds every occurrence of entry from first through horizonEnd
// into the matching rows. It returns false if MaxEnumerateSteps cut the
// enumeration short.
func foldEntry(rows []model.ForecastRow, index map[monthKey]int, entry model.Entry, first, horizonEnd calendar.Date) bool {
	rule := recurrence.LockAnchor(entry.Recurrence, first)
	end := entry.EndDate

	current := first
	for steps := 0; !current.After(horizonEnd); steps++ {
		if steps >= MaxEnumerateSteps {
			return false
		}
		if end == nil || !current.After(*end) {
			if i, ok := index[keyOf(current)]; ok {
				if entry.Type == model.Income {
					rows[i].Incomes = rows[i].Incomes.Add(entry.Amount)
				} else {
					rows[i].Expenses = rows[i].Expenses.Add(entry.Amount)
				}
			}
		}
		current = recurrence.Next(current, rule)
		if end != nil && current.After(*end) {
			break
		}
	}
	return true
}

// Rows is a convenience wrapper returning only Generate's rows.
func Rows(p model.Project, today calendar.Date) []model.ForecastRow {
	return Generate(p, today).Rows
}
