package cmd

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/form"
	"github.com/theirongolddev/cashflowcast/internal/model"
)

func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestApplyEntryFlags(t *testing.T) {
	s := form.Blank(calendar.MustParse("2025-02-01"))
	f := entryFlags{
		label:  "  Car lease ",
		typ:    "Expense",
		amount: "$1,200",
		end:    "2025-12-31",
		repeat: "x-weekly:3",
		notes:  "ignored",
	}
	if err := applyEntryFlags(&s, f, changedSet("label", "type", "amount", "end", "repeat")); err != nil {
		t.Fatalf("applyEntryFlags: %v", err)
	}

	e, err := s.Entry(model.Project{Currency: "EUR"})
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if e.Label != "Car lease" || e.Type != model.Expense || !e.Amount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("entry = %q %s %s", e.Label, e.Type, e.Amount)
	}
	if e.Recurrence != (model.Recurrence{Kind: model.KindEveryWeeks, Interval: 3}) {
		t.Errorf("Recurrence = %+v", e.Recurrence)
	}
	if e.EndDate == nil || e.EndDate.String() != "2025-12-31" {
		t.Errorf("EndDate = %v, want 2025-12-31", e.EndDate)
	}
	if e.Notes != "" {
		t.Errorf("unchanged notes flag was applied: %q", e.Notes)
	}
	if e.StartDate.String() != "2025-02-01" {
		t.Errorf("StartDate = %s, want 2025-02-01", e.StartDate)
	}
}

func TestApplyEntryFlagsMonthlyAnchor(t *testing.T) {
	s := form.Blank(calendar.MustParse("2025-02-01"))
	if err := applyEntryFlags(&s, entryFlags{repeat: "monthly"}, changedSet("repeat")); err != nil {
		t.Fatalf("applyEntryFlags: %v", err)
	}
	e, err := s.Entry(model.Project{})
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if e.Recurrence.HasAnchor() {
		t.Errorf("plain monthly got anchor %d", e.Recurrence.DayOfMonth)
	}
}

func TestApplyEntryFlagsErrors(t *testing.T) {
	tests := []struct {
		name    string
		flags   entryFlags
		changed string
		want    string
	}{
		{"type", entryFlags{typ: "refund"}, "type", "--type"},
		{"amount", entryFlags{amount: "-5"}, "amount", "negative"},
		{"amount text", entryFlags{amount: "many"}, "amount", "not a number"},
		{"start", entryFlags{start: "2025-13-01"}, "start", "--start"},
		{"end", entryFlags{end: "someday"}, "end", "--end"},
		{"repeat", entryFlags{repeat: "hourly"}, "repeat", "--repeat"},
		{"repeat number", entryFlags{repeat: "x-weekly:two"}, "repeat", "bad number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := form.Blank(calendar.MustParse("2025-02-01"))
			err := applyEntryFlags(&s, tt.flags, changedSet(tt.changed))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestFindEntry(t *testing.T) {
	entries := []model.Entry{
		{ID: "3f2a9c1e-0000-4000-8000-000000000001", Label: "Rent"},
		{ID: "3f2b0000-0000-4000-8000-000000000002", Label: "Groceries"},
		{ID: "income-1", Label: "Paycheck"},
	}

	tests := []struct {
		ref     string
		wantID  string
		wantErr string
	}{
		{ref: "income-1", wantID: "income-1"},
		{ref: "3f2a", wantID: "3f2a9c1e-0000-4000-8000-000000000001"},
		{ref: "groceries", wantID: "3f2b0000-0000-4000-8000-000000000002"},
		{ref: "3f2", wantErr: "matches 2 entries"},
		{ref: "Gym", wantErr: "no entry matches"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			e, err := findEntry(entries, tt.ref)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("findEntry: %v", err)
			}
			if e.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", e.ID, tt.wantID)
			}
		})
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("3f2a9c1e-0000-4000-8000-000000000001"); got != "3f2a9c1e" {
		t.Errorf("shortID(uuid) = %q", got)
	}
	if got := shortID("income-1"); got != "income-1" {
		t.Errorf("shortID(income-1) = %q", got)
	}
}
