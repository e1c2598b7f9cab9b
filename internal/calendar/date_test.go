package calendar

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		start  string
		months int
		want   string
	}{
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2025-03-31", 1, "2025-04-30"},
		{"2025-01-30", 1, "2025-02-28"},
		{"2025-04-30", 1, "2025-05-30"},
		{"2025-01-15", 1, "2025-02-15"},
		{"2025-12-31", 1, "2026-01-31"},
		{"2025-11-30", 3, "2026-02-28"},
		{"2024-02-29", 12, "2025-02-28"},
		{"2024-02-29", 48, "2028-02-29"},
		{"2025-03-31", -1, "2025-02-28"},
		{"2025-01-31", -2, "2024-11-30"},
		{"2025-06-15", -18, "2023-12-15"},
		{"2025-06-15", 0, "2025-06-15"},
	}

	for _, tt := range tests {
		t.Run(tt.start, func(t *testing.T) {
			got := MustParse(tt.start).AddMonths(tt.months)
			if got.String() != tt.want {
				t.Errorf("%s.AddMonths(%d) = %s, want %s", tt.start, tt.months, got, tt.want)
			}
		})
	}
}

func TestAddMonthsRepeatedCompositionDrifts(t *testing.T) {
	// Repeated single-month steps carry the clamp forward, exactly like a
	// calendar library stepping one month at a time.
	d := MustParse("2025-01-31")
	want := []string{"2025-02-28", "2025-03-28", "2025-04-28"}
	for i, w := range want {
		d = d.AddMonths(1)
		if d.String() != w {
			t.Fatalf("step %d = %s, want %s", i+1, d, w)
		}
	}

	// A single multi-month jump clamps only once.
	if got := MustParse("2025-01-31").AddMonths(3).String(); got != "2025-04-30" {
		t.Fatalf("AddMonths(3) = %s, want 2025-04-30", got)
	}
}

func TestStartAndEndOfMonth(t *testing.T) {
	tests := []struct {
		in, start, end string
	}{
		{"2025-02-14", "2025-02-01", "2025-02-28"},
		{"2024-02-14", "2024-02-01", "2024-02-29"},
		{"2025-04-01", "2025-04-01", "2025-04-30"},
		{"2025-12-31", "2025-12-01", "2025-12-31"},
		{"1900-02-10", "1900-02-01", "1900-02-28"},
		{"2000-02-10", "2000-02-01", "2000-02-29"},
	}
	for _, tt := range tests {
		d := MustParse(tt.in)
		if got := d.StartOfMonth().String(); got != tt.start {
			t.Errorf("StartOfMonth(%s) = %s, want %s", tt.in, got, tt.start)
		}
		if got := d.EndOfMonth().String(); got != tt.end {
			t.Errorf("EndOfMonth(%s) = %s, want %s", tt.in, got, tt.end)
		}
	}
}

func TestAddDaysCrossesBoundaries(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"2025-12-31", 1, "2026-01-01"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2025-02-28", 1, "2025-03-01"},
		{"2025-03-01", -1, "2025-02-28"},
		{"2025-01-01", 14, "2025-01-15"},
	}
	for _, tt := range tests {
		if got := MustParse(tt.in).AddDays(tt.n).String(); got != tt.want {
			t.Errorf("%s.AddDays(%d) = %s, want %s", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestOperationsDoNotMutateReceiver(t *testing.T) {
	d := MustParse("2025-01-31")
	_ = d.AddDays(10)
	_ = d.AddMonths(1)
	_ = d.StartOfMonth()
	_ = d.EndOfMonth()
	_ = d.WithDay(3)
	if d.String() != "2025-01-31" {
		t.Fatalf("receiver changed to %s", d)
	}
}

func TestBeforeAfterAreStrict(t *testing.T) {
	a := MustParse("2025-05-01")
	b := MustParse("2025-05-01")
	c := MustParse("2025-05-02")

	if a.Before(b) || a.After(b) {
		t.Error("equal dates must be neither before nor after each other")
	}
	if !a.Before(c) || c.Before(a) {
		t.Error("Before ordering wrong")
	}
	if !c.After(a) || a.After(c) {
		t.Error("After ordering wrong")
	}
	if got := Min(c, a); !got.Equal(a) {
		t.Errorf("Min = %s, want %s", got, a)
	}
}

func TestFromTimeIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2025, 3, 9, 23, 59, 59, 0, time.FixedZone("X", -7*3600))
	if got := FromTime(late).String(); got != "2025-03-09" {
		t.Fatalf("FromTime = %s, want 2025-03-09", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2025-13-01", "2025-02-30", "01/02/2025", "tomorrow"} {
		if _, err := Parse(s); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalidDate", s, err)
		}
	}
}

func TestWithDayClamps(t *testing.T) {
	d := MustParse("2025-02-10")
	if got := d.WithDay(31).String(); got != "2025-02-28" {
		t.Errorf("WithDay(31) = %s, want 2025-02-28", got)
	}
	if got := d.WithDay(0).String(); got != "2025-02-01" {
		t.Errorf("WithDay(0) = %s, want 2025-02-01", got)
	}
}

func TestJSONRoundTripAndTimestampInput(t *testing.T) {
	type wrapper struct {
		Start Date  `json:"start"`
		End   *Date `json:"end"`
	}

	data, err := json.Marshal(wrapper{Start: MustParse("2025-07-04")})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"start":"2025-07-04","end":null}` {
		t.Fatalf("marshal = %s", data)
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"start":"2025-01-31T00:00:00.000Z","end":"2025-03-01"}`), &w); err != nil {
		t.Fatal(err)
	}
	if w.Start.String() != "2025-01-31" {
		t.Errorf("start = %s, want 2025-01-31", w.Start)
	}
	if w.End == nil || w.End.String() != "2025-03-01" {
		t.Errorf("end = %v, want 2025-03-01", w.End)
	}
}

func TestScan(t *testing.T) {
	var d Date
	if err := d.Scan("2025-09-01"); err != nil {
		t.Fatal(err)
	}
	if d.String() != "2025-09-01" {
		t.Errorf("Scan string = %s", d)
	}
	if err := d.Scan(nil); err != nil || !d.IsZero() {
		t.Errorf("Scan(nil) = %v, %v", d, err)
	}
	if err := d.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
}
