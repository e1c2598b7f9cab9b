// Package model defines the data types shared by the forecast engine and
// its collaborators.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
)

func init() {
	// Amounts travel as JSON numbers, the same as the exported entry arrays.
	decimal.MarshalJSONWithoutQuotes = true
}

// EntryType classifies an entry as money in or money out.
type EntryType string

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

// Entry is one recurring income or expense line.
type Entry struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Type       EntryType       `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	StartDate  calendar.Date   `json:"startDate"`
	EndDate    *calendar.Date  `json:"endDate"`
	Recurrence Recurrence      `json:"recurrence"`
	Notes      string          `json:"notes,omitempty"`
}

// Signed returns the amount as a balance change: positive for income,
// negative for expenses.
func (e Entry) Signed() decimal.Decimal {
	if e.Type == Income {
		return e.Amount
	}
	return e.Amount.Neg()
}

// Project groups entries with the balance and horizon they are forecast
// against.
type Project struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Currency       string          `json:"currency"`
	Entries        []Entry         `json:"entries"`
	HorizonMonths  int             `json:"horizonMonths"`
	LastUpdated    time.Time       `json:"lastUpdated"`
}

// Months returns the horizon floored at one month.
func (p Project) Months() int {
	return max(1, p.HorizonMonths)
}
