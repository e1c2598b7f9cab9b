package model

import (
	"encoding/json"
	"strings"
)

// RecurrenceKind discriminates the Recurrence variants.
type RecurrenceKind string

const (
	KindDaily      RecurrenceKind = "daily"
	KindWeekly     RecurrenceKind = "weekly"
	KindBiweekly   RecurrenceKind = "biweekly"
	KindEveryWeeks RecurrenceKind = "x-weekly"
	KindMonthly    RecurrenceKind = "monthly"
	KindYearly     RecurrenceKind = "yearly"
	KindEveryDays  RecurrenceKind = "every-x-days"
)

// RecurrenceKinds lists every kind in display order.
var RecurrenceKinds = []RecurrenceKind{
	KindDaily,
	KindWeekly,
	KindBiweekly,
	KindEveryWeeks,
	KindMonthly,
	KindYearly,
	KindEveryDays,
}

// Recurrence describes how often an entry repeats.
//
// Interval is only meaningful for KindEveryWeeks and KindEveryDays.
// DayOfMonth is only meaningful for KindMonthly; zero means the rule has no
// explicit anchor.
type Recurrence struct {
	Kind       RecurrenceKind `json:"kind"`
	Interval   int            `json:"interval,omitempty"`
	DayOfMonth int            `json:"dayOfMonth,omitempty"`
}

// HasInterval reports whether the kind carries an interval.
func (k RecurrenceKind) HasInterval() bool {
	return k == KindEveryWeeks || k == KindEveryDays
}

// HasAnchor reports whether r is monthly with an explicit anchor day.
func (r Recurrence) HasAnchor() bool {
	return r.Kind == KindMonthly && r.DayOfMonth > 0
}

// UnmarshalJSON accepts the current {"kind": ...} shape as well as the
// older {"type": "bi-weekly", "every": 2} shape written by earlier builds.
func (r *Recurrence) UnmarshalJSON(b []byte) error {
	var raw struct {
		Kind       string `json:"kind"`
		Type       string `json:"type"`
		Interval   int    `json:"interval"`
		Every      int    `json:"every"`
		DayOfMonth int    `json:"dayOfMonth"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	kind := raw.Kind
	if kind == "" {
		kind = raw.Type
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "bi-weekly" {
		kind = string(KindBiweekly)
	}

	interval := raw.Interval
	if interval == 0 {
		interval = raw.Every
	}

	*r = Recurrence{
		Kind:       RecurrenceKind(kind),
		Interval:   interval,
		DayOfMonth: raw.DayOfMonth,
	}
	return nil
}
