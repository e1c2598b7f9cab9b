package forecast

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/model"
)

func TestSchedule(t *testing.T) {
	entries := []model.Entry{
		{ID: "retainer", Type: model.Income, Amount: dec(100),
			StartDate:  mustDate(t, "2025-01-20"),
			Recurrence: model.Recurrence{Kind: model.KindMonthly, DayOfMonth: 15}},
		// Started before the window; walks forward to Jan 1.
		{ID: "lunch", Type: model.Expense, Amount: dec(30),
			StartDate:  mustDate(t, "2024-12-25"),
			Recurrence: model.Recurrence{Kind: model.KindWeekly}},
	}
	points, rows := Schedule(entries, 2, mustDate(t, "2025-01-10"))

	want := []struct {
		monthStart string
		label      string
		total      int64
		running    int64
	}{
		{"2025-01-01", "Jan 2025", -150, -150},
		{"2025-02-01", "Feb 2025", -20, -170},
	}
	if len(points) != len(want) || len(rows) != len(want) {
		t.Fatalf("len = %d/%d, want %d", len(points), len(rows), len(want))
	}
	for i, w := range want {
		t.Run(w.label, func(t *testing.T) {
			if points[i].MonthStart != w.monthStart {
				t.Errorf("MonthStart = %q, want %q", points[i].MonthStart, w.monthStart)
			}
			if !points[i].Total.Equal(dec(w.total)) {
				t.Errorf("Total = %s, want %d", points[i].Total, w.total)
			}
			if rows[i].MonthLabel != w.label {
				t.Errorf("MonthLabel = %q, want %q", rows[i].MonthLabel, w.label)
			}
			if !rows[i].RunningTotal.Equal(dec(w.running)) {
				t.Errorf("RunningTotal = %s, want %d", rows[i].RunningTotal, w.running)
			}
		})
	}
}

func TestScheduleDefaultsAndEndDate(t *testing.T) {
	entries := []model.Entry{{
		ID: "gym", Type: model.Expense, Amount: dec(10),
		StartDate:  mustDate(t, "2025-03-31"),
		EndDate:    datePtr(t, "2025-06-15"),
		Recurrence: model.Recurrence{Kind: model.KindMonthly},
	}}
	points, _ := Schedule(entries, 0, mustDate(t, "2025-03-02"))
	if len(points) != DefaultScheduleMonths {
		t.Fatalf("len = %d, want %d", len(points), DefaultScheduleMonths)
	}

	// Mar 31, Apr 30, May 31. Jun 30 is past the end date.
	var total decimal.Decimal
	for _, p := range points {
		total = total.Add(p.Total)
	}
	if !total.Equal(dec(-30)) {
		t.Errorf("total = %s, want -30", total)
	}
	if !points[3].Total.IsZero() {
		t.Errorf("Jun total = %s, want 0", points[3].Total)
	}
}
