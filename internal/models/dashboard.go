package models

import "github.com/shopspring/decimal"

// MonthlyTotal is one calendar-month bucket of a rollup series.
type MonthlyTotal struct {
	Month string          `json:"month"`
	Year  int             `json:"year"`
	Total decimal.Decimal `json:"total"`
}

// CategoryTotal is a category's summed expense amount over a date range.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Savings/debt/net-worth classification states.
const (
	HealthPositive = "positive"
	HealthNegative = "negative"

	DebtLevelNone     = "none"
	DebtLevelModerate = "moderate"
	DebtLevelHigh     = "high"
)

// FinancialHealth is a pure classification of the snapshot's three derived
// numbers.
type FinancialHealth struct {
	Savings   string          `json:"savings"`
	DebtLevel string          `json:"debtLevel"`
	NetWorth  decimal.Decimal `json:"netWorth"`
	NetState  string          `json:"netWorthState"`
}

// DashboardSnapshot is the composed read model for the dashboard. It is
// built in one pass; if any constituent read fails the whole snapshot fails.
type DashboardSnapshot struct {
	ExpensesByMonth    []MonthlyTotal  `json:"expensesByMonth"`
	IncomesByMonth     []MonthlyTotal  `json:"incomesByMonth"`
	ExpensesByCategory []CategoryTotal `json:"expensesByCategory"`
	ActiveDebts        []Debt          `json:"activeDebts"`
	TotalDebts         decimal.Decimal `json:"totalDebts"`
	ActiveGoals        []Goal          `json:"activeGoals"`
	TotalGoalsTarget   decimal.Decimal `json:"totalGoalsTarget"`
	TotalGoalsSaved    decimal.Decimal `json:"totalGoalsSaved"`
	TotalExpensesMonth decimal.Decimal `json:"totalExpensesMonth"`
	TotalIncomesMonth  decimal.Decimal `json:"totalIncomesMonth"`
	Balance            decimal.Decimal `json:"balance"`
	Health             FinancialHealth `json:"health"`
}
