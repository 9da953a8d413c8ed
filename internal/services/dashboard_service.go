package services

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/backend/internal/models"
)

const dashboardMonths = 6

// DashboardService composes the outputs of the aggregator and the two
// ledgers into one consistent snapshot. If any constituent read fails the
// whole composition fails; a partial dashboard is never returned.
type DashboardService struct {
	aggregator *AggregatorService
	debts      *DebtService
	goals      *GoalService
}

func NewDashboardService(aggregator *AggregatorService, debts *DebtService, goals *GoalService) *DashboardService {
	return &DashboardService{
		aggregator: aggregator,
		debts:      debts,
		goals:      goals,
	}
}

// ComposeSnapshot builds the dashboard read model: six-month expense and
// income series, current-month category breakdown, active debts and goals
// with their totals, and the derived balance and health classification.
func (s *DashboardService) ComposeSnapshot(ctx context.Context, userID string) (*models.DashboardSnapshot, error) {
	return s.composeSnapshotAt(ctx, userID, time.Now())
}

func (s *DashboardService) composeSnapshotAt(ctx context.Context, userID string, now time.Time) (*models.DashboardSnapshot, error) {
	expensesByMonth, err := s.aggregator.monthlyTotalsAt(ctx, userID, KindExpense, dashboardMonths, now)
	if err != nil {
		return nil, err
	}

	incomesByMonth, err := s.aggregator.monthlyTotalsAt(ctx, userID, KindIncome, dashboardMonths, now)
	if err != nil {
		return nil, err
	}

	monthStart, nextMonth := monthBounds(now)
	categories, err := s.aggregator.CategoryTotals(ctx, userID, monthStart, nextMonth.Add(-time.Microsecond))
	if err != nil {
		return nil, err
	}

	activeDebts, err := s.debts.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	activeGoals, err := s.goals.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	totalDebts := decimal.Zero
	for _, d := range activeDebts {
		totalDebts = totalDebts.Add(d.Remaining)
	}

	totalGoalsTarget := decimal.Zero
	totalGoalsSaved := decimal.Zero
	for _, g := range activeGoals {
		totalGoalsTarget = totalGoalsTarget.Add(g.Target)
		totalGoalsSaved = totalGoalsSaved.Add(g.Saved)
	}

	// The series' newest bucket is the current month, so the month totals
	// come for free instead of two more store round trips.
	totalExpensesMonth := expensesByMonth[len(expensesByMonth)-1].Total
	totalIncomesMonth := incomesByMonth[len(incomesByMonth)-1].Total
	balance := totalIncomesMonth.Sub(totalExpensesMonth)

	snapshot := &models.DashboardSnapshot{
		ExpensesByMonth:    expensesByMonth,
		IncomesByMonth:     incomesByMonth,
		ExpensesByCategory: sortCategoryTotals(categories),
		ActiveDebts:        activeDebts,
		TotalDebts:         totalDebts,
		ActiveGoals:        activeGoals,
		TotalGoalsTarget:   totalGoalsTarget,
		TotalGoalsSaved:    totalGoalsSaved,
		TotalExpensesMonth: totalExpensesMonth,
		TotalIncomesMonth:  totalIncomesMonth,
		Balance:            balance,
		Health:             classifyHealth(balance, totalDebts, totalIncomesMonth, totalGoalsSaved, len(activeDebts)),
	}

	log.Printf("[DASHBOARD] Snapshot composed for user %s: balance %s, debts %s, saved %s",
		userID, balance, totalDebts, totalGoalsSaved)
	return snapshot, nil
}

// classifyHealth is a pure function of the snapshot's derived numbers.
// Savings state is positive iff balance >= 0. Debt level is none without
// active debts, moderate while total remaining stays within three months of
// current income, high beyond that. Net worth is saved minus remaining debt.
func classifyHealth(balance, totalDebts, monthIncome, totalSaved decimal.Decimal, activeDebtCount int) models.FinancialHealth {
	health := models.FinancialHealth{
		Savings:  models.HealthPositive,
		NetWorth: totalSaved.Sub(totalDebts),
	}
	if balance.Sign() < 0 {
		health.Savings = models.HealthNegative
	}

	switch {
	case activeDebtCount == 0:
		health.DebtLevel = models.DebtLevelNone
	case totalDebts.LessThanOrEqual(monthIncome.Mul(decimal.NewFromInt(3))):
		health.DebtLevel = models.DebtLevelModerate
	default:
		health.DebtLevel = models.DebtLevelHigh
	}

	health.NetState = models.HealthPositive
	if health.NetWorth.Sign() < 0 {
		health.NetState = models.HealthNegative
	}

	return health
}

func sortCategoryTotals(totals map[string]decimal.Decimal) []models.CategoryTotal {
	result := make([]models.CategoryTotal, 0, len(totals))
	for category, amount := range totals {
		result = append(result, models.CategoryTotal{Category: category, Amount: amount})
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Amount.Equal(result[j].Amount) {
			return result[i].Amount.GreaterThan(result[j].Amount)
		}
		return result[i].Category < result[j].Category
	})

	return result
}
