package forecast

import (
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/model"
)

// Summarise totals rows. The ending balance is the last row's balance, or
// opening when there are no rows.
func Summarise(rows []model.ForecastRow, opening decimal.Decimal) model.ForecastSummary {
	s := model.ForecastSummary{
		OpeningBalance: opening,
		EndingBalance:  opening,
	}
	for _, r := range rows {
		s.TotalIncome = s.TotalIncome.Add(r.Incomes)
		s.TotalExpense = s.TotalExpense.Add(r.Expenses)
		s.EndingBalance = r.Balance
	}
	return s
}

// LowestBalance returns the row with the smallest running balance and
// whether any row exists. Ties resolve to the earliest row.
func LowestBalance(rows []model.ForecastRow) (model.ForecastRow, bool) {
	if len(rows) == 0 {
		return model.ForecastRow{}, false
	}
	low := rows[0]
	for _, r := range rows[1:] {
		if r.Balance.LessThan(low.Balance) {
			low = r
		}
	}
	return low, true
}
