// Package recurrence expands recurrence rules into concrete occurrence dates.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/model"
)

// MaxNormalizeSteps caps how many advances FirstOccurrence makes while
// walking an entry forward to the window start.
const MaxNormalizeSteps = 2000

// Next returns the occurrence one cycle after current.
func Next(current calendar.Date, rule model.Recurrence) calendar.Date {
	switch rule.Kind {
	case model.KindDaily:
		return current.AddDays(1)
	case model.KindWeekly:
		return current.AddDays(7)
	case model.KindBiweekly:
		return current.AddDays(14)
	case model.KindEveryWeeks:
		return current.AddDays(7 * interval(rule))
	case model.KindEveryDays:
		return current.AddDays(interval(rule))
	case model.KindMonthly:
		return nextMonthly(current, rule)
	case model.KindYearly:
		return current.AddMonths(12)
	default:
		return current.AddMonths(1)
	}
}

func nextMonthly(current calendar.Date, rule model.Recurrence) calendar.Date {
	target := current.Day()
	if day := anchor(rule); day > 0 {
		target = day
	}
	return current.AddMonths(1).WithDay(target)
}

// interval returns the rule's interval coerced to at least one.
func interval(rule model.Recurrence) int {
	return max(1, rule.Interval)
}

// anchor returns the rule's anchor day clamped to [1,31], or zero when the
// rule has none.
func anchor(rule model.Recurrence) int {
	if rule.DayOfMonth <= 0 {
		return 0
	}
	return min(31, rule.DayOfMonth)
}

// FirstOccurrence returns the first occurrence of entry on or after
// windowStart. ok is false when the entry ends before the window or its
// first in-window occurrence falls after its end date.
func FirstOccurrence(entry model.Entry, windowStart calendar.Date) (first calendar.Date, ok bool) {
	first, ok, _ = FirstOccurrenceDetailed(entry, windowStart)
	return first, ok
}

// FirstOccurrenceDetailed is FirstOccurrence that also reports whether the
// MaxNormalizeSteps guard stopped the walk early. When it does, the last
// computed occurrence is returned as is.
func FirstOccurrenceDetailed(entry model.Entry, windowStart calendar.Date) (first calendar.Date, ok, exhausted bool) {
	if entry.EndDate != nil && entry.EndDate.Before(windowStart) {
		return calendar.Date{}, false, false
	}

	occurrence := entry.StartDate
	steps := 0
	for occurrence.Before(windowStart) && steps < MaxNormalizeSteps {
		occurrence = Next(occurrence, entry.Recurrence)
		steps++
	}
	exhausted = occurrence.Before(windowStart)

	if entry.EndDate != nil && occurrence.After(*entry.EndDate) {
		return calendar.Date{}, false, exhausted
	}
	return occurrence, true, exhausted
}

// LockAnchor pins a monthly rule without an explicit anchor to the day of
// first, so later advances do not drift after a short month. Other rules are
// returned unchanged.
func LockAnchor(rule model.Recurrence, first calendar.Date) model.Recurrence {
	if rule.Kind != model.KindMonthly || anchor(rule) > 0 {
		return rule
	}
	rule.DayOfMonth = first.Day()
	return rule
}

// Describe returns a short human-readable description of rule.
func Describe(rule model.Recurrence) string {
	switch rule.Kind {
	case model.KindDaily:
		return "Daily"
	case model.KindWeekly:
		return "Weekly"
	case model.KindBiweekly:
		return "Every 2 weeks"
	case model.KindEveryWeeks:
		return fmt.Sprintf("Every %d weeks", interval(rule))
	case model.KindMonthly:
		if day := anchor(rule); day > 0 {
			return fmt.Sprintf("Monthly on day %d", day)
		}
		return "Monthly on day of start"
	case model.KindYearly:
		return "Yearly"
	case model.KindEveryDays:
		return fmt.Sprintf("Every %d days", interval(rule))
	default:
		return "Monthly on day of start"
	}
}

// FromForm builds a normalized rule from loosely validated form input.
// Unknown kinds fall back to monthly; intervals are coerced to at least one;
// anchors outside 1-31 are dropped or clamped.
func FromForm(kind model.RecurrenceKind, every, dayOfMonth int) model.Recurrence {
	switch kind {
	case model.KindDaily, model.KindWeekly, model.KindBiweekly, model.KindYearly:
		return model.Recurrence{Kind: kind}
	case model.KindEveryWeeks, model.KindEveryDays:
		return model.Recurrence{Kind: kind, Interval: max(1, every)}
	default:
		r := model.Recurrence{Kind: model.KindMonthly}
		if dayOfMonth > 0 {
			r.DayOfMonth = min(31, dayOfMonth)
		}
		return r
	}
}

// Normalize applies FromForm's coercions to an existing rule.
func Normalize(rule model.Recurrence) model.Recurrence {
	return FromForm(rule.Kind, rule.Interval, rule.DayOfMonth)
}

// ParseKind maps user input to a kind. Besides the canonical names it
// accepts a few spellings used on the command line.
func ParseKind(s string) (model.RecurrenceKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "bi-weekly", "fortnightly":
		return model.KindBiweekly, nil
	case "every-n-weeks", "weeks":
		return model.KindEveryWeeks, nil
	case "every-n-days", "days":
		return model.KindEveryDays, nil
	case "annually", "annual":
		return model.KindYearly, nil
	}
	for _, k := range model.RecurrenceKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown recurrence %q (want one of %s)", s, kindList())
}

func kindList() string {
	names := make([]string, len(model.RecurrenceKinds))
	for i, k := range model.RecurrenceKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Spec renders rule in the compact form accepted by ParseSpec, e.g.
// "monthly:15", "x-weekly:3" or "weekly".
func Spec(rule model.Recurrence) string {
	switch {
	case rule.Kind.HasInterval():
		return string(rule.Kind) + ":" + strconv.Itoa(interval(rule))
	case rule.HasAnchor():
		return string(rule.Kind) + ":" + strconv.Itoa(anchor(rule))
	default:
		return string(rule.Kind)
	}
}

// ParseSpec parses the compact "kind[:n]" form. For interval kinds n is the
// interval; for monthly it is the anchor day.
func ParseSpec(s string) (model.Recurrence, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")
	kind, err := ParseKind(name)
	if err != nil {
		return model.Recurrence{}, err
	}
	n := 0
	if hasArg {
		n, err = strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return model.Recurrence{}, fmt.Errorf("recurrence %q: bad number %q", s, arg)
		}
	}
	return FromForm(kind, n, n), nil
}
