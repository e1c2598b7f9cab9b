// Package sample builds the demonstration household project.
package sample

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/model"
)

const (
	// ProjectID is the fixed ID of the sample project.
	ProjectID = "sample-project"
	currency  = "USD"
)

// Project returns the sample project with every entry starting in today's
// month.
func Project(today calendar.Date) model.Project {
	on := func(day int) calendar.Date {
		return today.StartOfMonth().WithDay(day)
	}

	entries := []model.Entry{
		{
			ID: "income-1", Label: "Paycheck", Type: model.Income, Amount: decimal.NewFromInt(2200),
			StartDate:  on(1),
			Recurrence: model.Recurrence{Kind: model.KindBiweekly},
			Notes:      "Net salary after deductions.",
		},
		{
			ID: "expense-1", Label: "Rent", Type: model.Expense, Amount: decimal.NewFromInt(1450),
			StartDate:  on(1),
			Recurrence: model.Recurrence{Kind: model.KindMonthly, DayOfMonth: 1},
			Notes:      "Apartment lease payment.",
		},
		{
			ID: "expense-2", Label: "Groceries", Type: model.Expense, Amount: decimal.NewFromInt(180),
			StartDate:  on(5),
			Recurrence: model.Recurrence{Kind: model.KindWeekly},
			Notes:      "Household essentials and produce.",
		},
		{
			ID: "income-2", Label: "Freelance Retainer", Type: model.Income, Amount: decimal.NewFromInt(600),
			StartDate:  on(15),
			Recurrence: model.Recurrence{Kind: model.KindMonthly, DayOfMonth: 15},
			Notes:      "Contract work billed mid-month.",
		},
		{
			ID: "expense-3", Label: "Streaming Bundle", Type: model.Expense, Amount: decimal.NewFromInt(45),
			StartDate:  on(10),
			Recurrence: model.Recurrence{Kind: model.KindMonthly, DayOfMonth: 10},
			Notes:      "Entertainment subscriptions.",
		},
		{
			ID: "income-3", Label: "Savings Interest", Type: model.Income, Amount: decimal.NewFromInt(25),
			StartDate:  on(28),
			Recurrence: model.Recurrence{Kind: model.KindMonthly, DayOfMonth: 28},
			Notes:      "High-yield account earnings.",
		},
		{
			ID: "expense-4", Label: "Gym Membership", Type: model.Expense, Amount: decimal.NewFromInt(55),
			StartDate:  on(3),
			Recurrence: model.Recurrence{Kind: model.KindMonthly, DayOfMonth: 3},
			Notes:      "Health and wellness.",
		},
		{
			ID: "expense-5", Label: "Weekend Activities", Type: model.Expense, Amount: decimal.NewFromInt(90),
			StartDate:  on(6),
			Recurrence: model.Recurrence{Kind: model.KindEveryWeeks, Interval: 2},
			Notes:      "Every other weekend outings.",
		},
	}
	for i := range entries {
		entries[i].Currency = currency
	}

	return model.Project{
		ID:             ProjectID,
		Name:           "Sample Household Plan",
		Description:    "A starter projection combining payroll, rent, savings, and discretionary spending to demonstrate the forecast.",
		OpeningBalance: decimal.NewFromInt(2500),
		Currency:       currency,
		HorizonMonths:  6,
		Entries:        entries,
		LastUpdated:    today.Time().Add(12 * time.Hour),
	}
}
