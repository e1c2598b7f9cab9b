package model

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
)

// ForecastRow holds one calendar month of the forecast.
type ForecastRow struct {
	PeriodStart calendar.Date   `json:"periodStart"`
	Label       string          `json:"label"`
	Incomes     decimal.Decimal `json:"incomes"`
	Expenses    decimal.Decimal `json:"expenses"`
	Net         decimal.Decimal `json:"net"`
	Balance     decimal.Decimal `json:"balance"`
}

// ForecastSummary totals a forecast run.
type ForecastSummary struct {
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	TotalIncome    decimal.Decimal `json:"totalIncome"`
	TotalExpense   decimal.Decimal `json:"totalExpense"`
	EndingBalance  decimal.Decimal `json:"endingBalance"`
}

// Net returns total income minus total expense.
func (s ForecastSummary) Net() decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpense)
}
