package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/recurrence"
)

// DefaultScheduleMonths is the window used by Schedule when months <= 0.
const DefaultScheduleMonths = 12

// SchedulePoint is one month's signed total.
type SchedulePoint struct {
	MonthStart string          `json:"monthStart"`
	Total      decimal.Decimal `json:"total"`
}

// ScheduleRow is a SchedulePoint with a display label and running total.
type ScheduleRow struct {
	SchedulePoint
	MonthLabel   string          `json:"monthLabel"`
	RunningTotal decimal.Decimal `json:"runningTotal"`
}

// Schedule aggregates entries into signed monthly totals over months months
// starting at base's month. Unlike Generate it has no opening balance and
// always starts at base, so entries that began earlier are walked forward.
// Monthly entries land on their anchor day (or their start day) from the
// start month onward.
func Schedule(entries []model.Entry, months int, base calendar.Date) ([]SchedulePoint, []ScheduleRow) {
	if months <= 0 {
		months = DefaultScheduleMonths
	}
	windowStart := base.StartOfMonth()
	windowEnd := windowStart.AddMonths(months)

	totals := make(map[monthKey]decimal.Decimal)
	for _, entry := range entries {
		rule, occurrence := scheduleStart(entry, windowStart)
		for steps := 0; occurrence.Before(windowEnd) && steps < MaxEnumerateSteps; steps++ {
			if entry.EndDate != nil && occurrence.After(*entry.EndDate) {
				break
			}
			if !occurrence.Before(windowStart) {
				k := keyOf(occurrence)
				totals[k] = totals[k].Add(entry.Signed())
			}
			next := recurrence.Next(occurrence, rule)
			if !next.After(occurrence) {
				break
			}
			occurrence = next
		}
	}

	points := make([]SchedulePoint, 0, months)
	rows := make([]ScheduleRow, 0, months)
	var running decimal.Decimal
	for i := 0; i < months; i++ {
		monthStart := windowStart.AddMonths(i)
		total := totals[keyOf(monthStart)]
		running = running.Add(total)

		point := SchedulePoint{MonthStart: monthStart.String(), Total: total}
		points = append(points, point)
		rows = append(rows, ScheduleRow{
			SchedulePoint: point,
			MonthLabel:    monthStart.Format(LabelLayout),
			RunningTotal:  running,
		})
	}
	return points, rows
}

// scheduleStart returns the rule to advance with and the first occurrence
// at or after windowStart. Monthly rules are anchored inside the start month
// before walking forward.
func scheduleStart(entry model.Entry, windowStart calendar.Date) (model.Recurrence, calendar.Date) {
	rule := entry.Recurrence
	occurrence := entry.StartDate

	if rule.Kind == model.KindMonthly {
		rule = recurrence.LockAnchor(recurrence.Normalize(rule), entry.StartDate)
		occurrence = entry.StartDate.WithDay(rule.DayOfMonth)
		if occurrence.Before(entry.StartDate) {
			occurrence = occurrence.AddMonths(1).WithDay(rule.DayOfMonth)
		}
	}

	for steps := 0; occurrence.Before(windowStart) && steps < recurrence.MaxNormalizeSteps; steps++ {
		next := recurrence.Next(occurrence, rule)
		if !next.After(occurrence) {
			break
		}
		occurrence = next
	}
	return rule, occurrence
}
