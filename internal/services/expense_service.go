package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fintrack/backend/internal/models"
)

// ExpenseService owns expense records. Every operation is scoped to the
// acting user's id; a record belonging to someone else behaves exactly like
// a missing record.
type ExpenseService struct {
	db *sql.DB
}

func NewExpenseService(db *sql.DB) *ExpenseService {
	return &ExpenseService{db: db}
}

type CreateExpenseInput struct {
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        time.Time
}

// UpdateExpenseInput carries a partial update: nil fields are left untouched.
type UpdateExpenseInput struct {
	Amount      *decimal.Decimal
	Category    *string
	Description *string
	Date        *time.Time
}

func (s *ExpenseService) Create(ctx context.Context, userID string, in CreateExpenseInput) (*models.Expense, error) {
	if in.Amount.Sign() <= 0 {
		return nil, invalidInput("amount must be positive")
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, invalidInput("category is required")
	}
	if in.Date.IsZero() {
		return nil, invalidInput("date is required")
	}

	expense := &models.Expense{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: in.Description,
		Date:        in.Date,
		CreatedAt:   time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, amount, category, description, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		expense.ID, expense.UserID, expense.Amount, expense.Category,
		expense.Description, expense.Date, expense.CreatedAt)
	if err != nil {
		log.Printf("[EXPENSE] Failed to create expense for user %s: %v", userID, err)
		return nil, storeError(err)
	}

	return expense, nil
}

func (s *ExpenseService) List(ctx context.Context, userID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, category, COALESCE(description, ''), date, created_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY date DESC`, userID)
	if err != nil {
		log.Printf("[EXPENSE] Failed to list expenses for user %s: %v", userID, err)
		return nil, storeError(err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Description, &e.Date, &e.CreatedAt); err != nil {
			return nil, storeError(err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	return expenses, nil
}

func (s *ExpenseService) Update(ctx context.Context, userID, expenseID string, in UpdateExpenseInput) (*models.Expense, error) {
	if in.Amount != nil && in.Amount.Sign() <= 0 {
		return nil, invalidInput("amount must be positive")
	}
	if in.Category != nil && strings.TrimSpace(*in.Category) == "" {
		return nil, invalidInput("category must not be empty")
	}

	var sets []string
	var args []interface{}
	argIndex := 1

	if in.Amount != nil {
		sets = append(sets, fmt.Sprintf("amount = $%d", argIndex))
		args = append(args, *in.Amount)
		argIndex++
	}
	if in.Category != nil {
		sets = append(sets, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *in.Category)
		argIndex++
	}
	if in.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, *in.Description)
		argIndex++
	}
	if in.Date != nil {
		sets = append(sets, fmt.Sprintf("date = $%d", argIndex))
		args = append(args, *in.Date)
		argIndex++
	}

	if len(sets) == 0 {
		return nil, invalidInput("no fields to update")
	}

	query := fmt.Sprintf(`
		UPDATE expenses SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING id, user_id, amount, category, COALESCE(description, ''), date, created_at`,
		strings.Join(sets, ", "), argIndex, argIndex+1)
	args = append(args, expenseID, userID)

	var e models.Expense
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Description, &e.Date, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("[EXPENSE] Failed to update expense %s: %v", expenseID, err)
		return nil, storeError(err)
	}

	return &e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, expenseID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = $1 AND user_id = $2`, expenseID, userID)
	if err != nil {
		log.Printf("[EXPENSE] Failed to delete expense %s: %v", expenseID, err)
		return storeError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError(err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
