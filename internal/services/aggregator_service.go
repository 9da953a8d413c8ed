package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fintrack/backend/internal/models"
)

// EntryKind selects which ledger a rollup runs over.
type EntryKind string

const (
	KindExpense EntryKind = "expense"
	KindIncome  EntryKind = "income"
)

// AggregatorService computes month-bucketed and category-grouped rollups
// over the raw expense and income records. Month boundaries are calendar
// months in the server's local time, not 30-day windows.
type AggregatorService struct {
	db *sql.DB
}

func NewAggregatorService(db *sql.DB) *AggregatorService {
	return &AggregatorService{db: db}
}

// MonthlyTotals returns exactly monthCount entries, oldest first, one per
// calendar month counting back from the current month inclusive. Months
// with no records appear with a zero total rather than being omitted.
func (s *AggregatorService) MonthlyTotals(ctx context.Context, userID string, kind EntryKind, monthCount int) ([]models.MonthlyTotal, error) {
	return s.monthlyTotalsAt(ctx, userID, kind, monthCount, time.Now())
}

// monthlyTotalsAt buckets with an explicit "now" so the window math is
// testable. A single range query feeds in-memory bucketing; one store round
// trip regardless of monthCount.
func (s *AggregatorService) monthlyTotalsAt(ctx context.Context, userID string, kind EntryKind, monthCount int, now time.Time) ([]models.MonthlyTotal, error) {
	if monthCount <= 0 {
		return nil, invalidInput("monthCount must be positive")
	}

	table, err := tableForKind(kind)
	if err != nil {
		return nil, err
	}

	currentFirst := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	windowStart := currentFirst.AddDate(0, -(monthCount - 1), 0)
	windowEnd := currentFirst.AddDate(0, 1, 0)

	// Half-open month buckets: a record dated exactly on a month boundary
	// belongs to the month that starts there, never two buckets.
	query := fmt.Sprintf(`
		SELECT date, amount FROM %s
		WHERE user_id = $1 AND date >= $2 AND date < $3`, table)

	rows, err := s.db.QueryContext(ctx, query, userID, windowStart, windowEnd)
	if err != nil {
		log.Printf("[AGGREGATOR] Failed to query %s totals for user %s: %v", kind, userID, err)
		return nil, storeError(err)
	}
	defer rows.Close()

	buckets := make([]decimal.Decimal, monthCount)
	for rows.Next() {
		var date time.Time
		var amount decimal.Decimal
		if err := rows.Scan(&date, &amount); err != nil {
			return nil, storeError(err)
		}

		idx := monthsBetween(windowStart, date.In(now.Location()))
		if idx < 0 || idx >= monthCount {
			continue
		}
		buckets[idx] = buckets[idx].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	totals := make([]models.MonthlyTotal, monthCount)
	for i := range totals {
		month := windowStart.AddDate(0, i, 0)
		totals[i] = models.MonthlyTotal{
			Month: month.Format("Jan"),
			Year:  month.Year(),
			Total: buckets[i],
		}
	}

	return totals, nil
}

// CategoryTotals sums expense amounts per category over [start, end]
// inclusive. Categories with no matching records are absent from the map.
func (s *AggregatorService) CategoryTotals(ctx context.Context, userID string, start, end time.Time) (map[string]decimal.Decimal, error) {
	if end.Before(start) {
		return nil, invalidInput("end date precedes start date")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, SUM(amount) FROM expenses
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		GROUP BY category`, userID, start, end)
	if err != nil {
		log.Printf("[AGGREGATOR] Failed to query category totals for user %s: %v", userID, err)
		return nil, storeError(err)
	}
	defer rows.Close()

	totals := map[string]decimal.Decimal{}
	for rows.Next() {
		var category string
		var amount decimal.Decimal
		if err := rows.Scan(&category, &amount); err != nil {
			return nil, storeError(err)
		}
		totals[category] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	return totals, nil
}

func tableForKind(kind EntryKind) (string, error) {
	switch kind {
	case KindExpense:
		return "expenses", nil
	case KindIncome:
		return "incomes", nil
	default:
		return "", invalidInput(fmt.Sprintf("unknown entry kind %q", kind))
	}
}

// monthsBetween counts whole calendar months from the month containing a to
// the month containing b.
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// monthBounds returns the first instant of t's month and the first instant
// of the following month.
func monthBounds(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first, first.AddDate(0, 1, 0)
}
