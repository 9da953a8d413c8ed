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

// IncomeService owns income records, with the same owner-scoping rules as
// ExpenseService.
type IncomeService struct {
	db *sql.DB
}

func NewIncomeService(db *sql.DB) *IncomeService {
	return &IncomeService{db: db}
}

type CreateIncomeInput struct {
	Amount decimal.Decimal
	Source string
	Date   time.Time
	Notes  string
}

type UpdateIncomeInput struct {
	Amount *decimal.Decimal
	Source *string
	Date   *time.Time
	Notes  *string
}

func (s *IncomeService) Create(ctx context.Context, userID string, in CreateIncomeInput) (*models.Income, error) {
	if in.Amount.Sign() <= 0 {
		return nil, invalidInput("amount must be positive")
	}
	if strings.TrimSpace(in.Source) == "" {
		return nil, invalidInput("source is required")
	}
	if in.Date.IsZero() {
		return nil, invalidInput("date is required")
	}

	income := &models.Income{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    in.Amount,
		Source:    in.Source,
		Date:      in.Date,
		Notes:     in.Notes,
		CreatedAt: time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incomes (id, user_id, amount, source, date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		income.ID, income.UserID, income.Amount, income.Source,
		income.Date, income.Notes, income.CreatedAt)
	if err != nil {
		log.Printf("[INCOME] Failed to create income for user %s: %v", userID, err)
		return nil, storeError(err)
	}

	return income, nil
}

func (s *IncomeService) List(ctx context.Context, userID string) ([]models.Income, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, source, date, COALESCE(notes, ''), created_at
		FROM incomes
		WHERE user_id = $1
		ORDER BY date DESC`, userID)
	if err != nil {
		log.Printf("[INCOME] Failed to list incomes for user %s: %v", userID, err)
		return nil, storeError(err)
	}
	defer rows.Close()

	incomes := []models.Income{}
	for rows.Next() {
		var in models.Income
		if err := rows.Scan(&in.ID, &in.UserID, &in.Amount, &in.Source, &in.Date, &in.Notes, &in.CreatedAt); err != nil {
			return nil, storeError(err)
		}
		incomes = append(incomes, in)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	return incomes, nil
}

func (s *IncomeService) Update(ctx context.Context, userID, incomeID string, in UpdateIncomeInput) (*models.Income, error) {
	if in.Amount != nil && in.Amount.Sign() <= 0 {
		return nil, invalidInput("amount must be positive")
	}
	if in.Source != nil && strings.TrimSpace(*in.Source) == "" {
		return nil, invalidInput("source must not be empty")
	}

	var sets []string
	var args []interface{}
	argIndex := 1

	if in.Amount != nil {
		sets = append(sets, fmt.Sprintf("amount = $%d", argIndex))
		args = append(args, *in.Amount)
		argIndex++
	}
	if in.Source != nil {
		sets = append(sets, fmt.Sprintf("source = $%d", argIndex))
		args = append(args, *in.Source)
		argIndex++
	}
	if in.Date != nil {
		sets = append(sets, fmt.Sprintf("date = $%d", argIndex))
		args = append(args, *in.Date)
		argIndex++
	}
	if in.Notes != nil {
		sets = append(sets, fmt.Sprintf("notes = $%d", argIndex))
		args = append(args, *in.Notes)
		argIndex++
	}

	if len(sets) == 0 {
		return nil, invalidInput("no fields to update")
	}

	query := fmt.Sprintf(`
		UPDATE incomes SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING id, user_id, amount, source, date, COALESCE(notes, ''), created_at`,
		strings.Join(sets, ", "), argIndex, argIndex+1)
	args = append(args, incomeID, userID)

	var income models.Income
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&income.ID, &income.UserID, &income.Amount, &income.Source, &income.Date, &income.Notes, &income.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("[INCOME] Failed to update income %s: %v", incomeID, err)
		return nil, storeError(err)
	}

	return &income, nil
}

func (s *IncomeService) Delete(ctx context.Context, userID, incomeID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM incomes WHERE id = $1 AND user_id = $2`, incomeID, userID)
	if err != nil {
		log.Printf("[INCOME] Failed to delete income %s: %v", incomeID, err)
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
