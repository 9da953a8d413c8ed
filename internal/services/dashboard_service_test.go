package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fintrack/backend/internal/models"
)

func TestDashboardService_ComposeSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	aggregator := NewAggregatorService(db)
	debts := NewDebtService(db)
	goals := NewGoalService(db)
	service := NewDashboardService(aggregator, debts, goals)

	now := time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

	t.Run("composes all constituents into one snapshot", func(t *testing.T) {
		// expense series
		mock.ExpectQuery("SELECT date, amount FROM expenses WHERE user_id = \\$1 AND date >= \\$2 AND date < \\$3").
			WithArgs("user1", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"date", "amount"}).
				AddRow(time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC), "200"))
		// income series
		mock.ExpectQuery("SELECT date, amount FROM incomes WHERE user_id = \\$1 AND date >= \\$2 AND date < \\$3").
			WithArgs("user1", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"date", "amount"}).
				AddRow(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), "2000"))
		// category breakdown
		mock.ExpectQuery("SELECT category, SUM\\(amount\\) FROM expenses").
			WithArgs("user1", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"category", "sum"}).
				AddRow("groceries", "120").
				AddRow("transport", "80"))
		// active debts
		mock.ExpectQuery("WHERE user_id = \\$1 AND is_paid = false").
			WithArgs("user1").
			WillReturnRows(debtRows("debt1", "user1", "5000", "3000", false))
		// active goals
		mock.ExpectQuery("WHERE user_id = \\$1 AND is_achieved = false").
			WithArgs("user1").
			WillReturnRows(goalRows("goal1", "user1", "10000", "2500", false))

		snapshot, err := service.composeSnapshotAt(context.Background(), "user1", now)
		assert.NoError(t, err)

		assert.Len(t, snapshot.ExpensesByMonth, 6)
		assert.Len(t, snapshot.IncomesByMonth, 6)
		assert.True(t, snapshot.TotalExpensesMonth.Equal(decimal.NewFromInt(200)))
		assert.True(t, snapshot.TotalIncomesMonth.Equal(decimal.NewFromInt(2000)))
		assert.True(t, snapshot.Balance.Equal(decimal.NewFromInt(1800)))

		assert.True(t, snapshot.TotalDebts.Equal(decimal.NewFromInt(3000)))
		assert.True(t, snapshot.TotalGoalsTarget.Equal(decimal.NewFromInt(10000)))
		assert.True(t, snapshot.TotalGoalsSaved.Equal(decimal.NewFromInt(2500)))

		// categories sorted largest first
		assert.Len(t, snapshot.ExpensesByCategory, 2)
		assert.Equal(t, "groceries", snapshot.ExpensesByCategory[0].Category)
		assert.Equal(t, "transport", snapshot.ExpensesByCategory[1].Category)

		assert.Equal(t, models.HealthPositive, snapshot.Health.Savings)
		assert.Equal(t, models.DebtLevelModerate, snapshot.Health.DebtLevel)
		assert.True(t, snapshot.Health.NetWorth.Equal(decimal.NewFromInt(-500)))
		assert.Equal(t, models.HealthNegative, snapshot.Health.NetState)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("constituent failure fails the whole composition", func(t *testing.T) {
		mock.ExpectQuery("SELECT date, amount FROM expenses").
			WithArgs("user1", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnError(assert.AnError)

		_, err := service.composeSnapshotAt(context.Background(), "user1", now)
		assert.ErrorIs(t, err, ErrStoreUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClassifyHealth(t *testing.T) {
	income := decimal.NewFromInt(2000)

	t.Run("no active debts", func(t *testing.T) {
		h := classifyHealth(decimal.NewFromInt(500), decimal.Zero, income, decimal.NewFromInt(1000), 0)
		assert.Equal(t, models.HealthPositive, h.Savings)
		assert.Equal(t, models.DebtLevelNone, h.DebtLevel)
		assert.Equal(t, models.HealthPositive, h.NetState)
		assert.True(t, h.NetWorth.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("debt within three months of income is moderate", func(t *testing.T) {
		h := classifyHealth(decimal.NewFromInt(100), decimal.NewFromInt(6000), income, decimal.Zero, 2)
		assert.Equal(t, models.DebtLevelModerate, h.DebtLevel)
	})

	t.Run("debt beyond three months of income is high", func(t *testing.T) {
		h := classifyHealth(decimal.NewFromInt(100), decimal.NewFromInt(6001), income, decimal.Zero, 2)
		assert.Equal(t, models.DebtLevelHigh, h.DebtLevel)
	})

	t.Run("negative balance flips savings state", func(t *testing.T) {
		h := classifyHealth(decimal.NewFromInt(-1), decimal.Zero, income, decimal.Zero, 0)
		assert.Equal(t, models.HealthNegative, h.Savings)
	})

	t.Run("zero balance counts as positive savings", func(t *testing.T) {
		h := classifyHealth(decimal.Zero, decimal.Zero, income, decimal.Zero, 0)
		assert.Equal(t, models.HealthPositive, h.Savings)
	})

	t.Run("net worth below zero flips net state", func(t *testing.T) {
		h := classifyHealth(decimal.NewFromInt(100), decimal.NewFromInt(500), income, decimal.NewFromInt(200), 1)
		assert.True(t, h.NetWorth.Equal(decimal.NewFromInt(-300)))
		assert.Equal(t, models.HealthNegative, h.NetState)
	})
}

func TestSortCategoryTotals(t *testing.T) {
	totals := map[string]decimal.Decimal{
		"rent":      decimal.NewFromInt(1200),
		"groceries": decimal.NewFromInt(300),
		"transport": decimal.NewFromInt(300),
	}

	sorted := sortCategoryTotals(totals)
	assert.Len(t, sorted, 3)
	assert.Equal(t, "rent", sorted[0].Category)
	// ties break alphabetically for a stable ordering
	assert.Equal(t, "groceries", sorted[1].Category)
	assert.Equal(t, "transport", sorted[2].Category)
}
