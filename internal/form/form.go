// Package form holds the editable state behind the entry add/edit forms.
//
// Fields are strings so they can be bound directly to text inputs; State.Entry
// does the parsing and normalization.
package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/recurrence"
)

// DefaultLabel replaces an empty label.
const DefaultLabel = "Untitled entry"

// State is one entry as edited in a form.
type State struct {
	ID             string
	Label          string
	Type           model.EntryType
	Amount         string
	StartDate      string
	EndDate        string
	RecurrenceKind model.RecurrenceKind
	Interval       string
	DayOfMonth     string
	Notes          string
}

// Option adjusts a blank State.
type Option func(*State)

// WithType presets the entry type.
func WithType(t model.EntryType) Option {
	return func(s *State) { s.Type = t }
}

// WithRecurrence presets the recurrence kind.
func WithRecurrence(k model.RecurrenceKind) Option {
	return func(s *State) { s.RecurrenceKind = k }
}

// Blank returns the state of a new-entry form starting on today.
func Blank(today calendar.Date, opts ...Option) State {
	s := State{
		Type:           model.Income,
		Amount:         "0",
		StartDate:      today.String(),
		RecurrenceKind: model.KindMonthly,
		Interval:       "2",
		DayOfMonth:     "1",
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// FromEntry returns the form state for editing e.
func FromEntry(e model.Entry) State {
	interval := 1
	switch e.Recurrence.Kind {
	case model.KindEveryWeeks, model.KindEveryDays:
		interval = max(1, e.Recurrence.Interval)
	case model.KindBiweekly:
		interval = 2
	}
	day := 1
	if e.Recurrence.DayOfMonth > 0 {
		day = e.Recurrence.DayOfMonth
	}

	s := State{
		ID:             e.ID,
		Label:          e.Label,
		Type:           e.Type,
		Amount:         e.Amount.String(),
		StartDate:      e.StartDate.String(),
		RecurrenceKind: e.Recurrence.Kind,
		Interval:       strconv.Itoa(interval),
		DayOfMonth:     strconv.Itoa(day),
		Notes:          e.Notes,
	}
	if e.EndDate != nil {
		s.EndDate = e.EndDate.String()
	}
	return s
}

// Entry converts s into an entry of project p. It fails only when a date
// field cannot be parsed.
func (s State) Entry(p model.Project) (model.Entry, error) {
	start, err := calendar.Parse(s.StartDate)
	if err != nil {
		return model.Entry{}, fmt.Errorf("start date: %w", err)
	}

	var end *calendar.Date
	if strings.TrimSpace(s.EndDate) != "" {
		d, err := calendar.Parse(s.EndDate)
		if err != nil {
			return model.Entry{}, fmt.Errorf("end date: %w", err)
		}
		end = &d
	}

	id := strings.TrimSpace(s.ID)
	if id == "" {
		id = uuid.NewString()
	}
	label := strings.TrimSpace(s.Label)
	if label == "" {
		label = DefaultLabel
	}
	typ := s.Type
	if typ != model.Expense {
		typ = model.Income
	}

	return model.Entry{
		ID:         id,
		Label:      label,
		Type:       typ,
		Amount:     ParseAmount(s.Amount),
		Currency:   p.Currency,
		StartDate:  start,
		EndDate:    end,
		Recurrence: recurrence.FromForm(s.RecurrenceKind, parseInt(s.Interval), parseInt(s.DayOfMonth)),
		Notes:      strings.TrimSpace(s.Notes),
	}, nil
}

// ParseDecimal parses a user-typed number. Thousands separators and a
// leading currency sign are ignored, so "$1,200.50" and "-€40" both parse.
func ParseDecimal(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	neg := strings.HasPrefix(text, "-")
	text = strings.TrimPrefix(text, "-")
	text = strings.TrimLeft(text, "$€£¥")
	text = strings.ReplaceAll(text, ",", "")
	v, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, err
	}
	if neg {
		v = v.Neg()
	}
	return v, nil
}

// ParseAmount parses a user-typed amount with ParseDecimal. Anything
// unparseable or negative is 0.
func ParseAmount(text string) decimal.Decimal {
	v, err := ParseDecimal(text)
	if err != nil || v.IsNegative() {
		return decimal.Zero
	}
	return v
}

func parseInt(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return n
}
