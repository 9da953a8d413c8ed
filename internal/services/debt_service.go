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

// DebtService is the debt ledger: it owns debt records, their payment
// history, and the running remaining balance. Remaining and IsPaid are only
// ever rewritten together, inside the same transaction as the payment row,
// so the derived flag cannot drift from the balance it summarizes.
type DebtService struct {
	db *sql.DB
}

func NewDebtService(db *sql.DB) *DebtService {
	return &DebtService{db: db}
}

type CreateDebtInput struct {
	Title       string
	TotalAmount decimal.Decimal
	Creditor    string
	StartDate   time.Time
	DueDate     *time.Time
}

// UpdateDebtInput carries a partial update. Direct edits to Remaining and
// IsPaid are permitted; they bypass the payment history, so a caller using
// them takes responsibility for keeping the two consistent.
type UpdateDebtInput struct {
	Title     *string
	Creditor  *string
	DueDate   *time.Time
	Remaining *decimal.Decimal
	IsPaid    *bool
}

type ApplyPaymentInput struct {
	Amount decimal.Decimal
	Date   time.Time
	Notes  string
}

func (s *DebtService) Create(ctx context.Context, userID string, in CreateDebtInput) (*models.Debt, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalidInput("title is required")
	}
	if in.TotalAmount.Sign() <= 0 {
		return nil, invalidInput("totalAmount must be positive")
	}
	if in.StartDate.IsZero() {
		return nil, invalidInput("startDate is required")
	}

	debt := &models.Debt{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       in.Title,
		TotalAmount: in.TotalAmount,
		Remaining:   in.TotalAmount,
		Creditor:    in.Creditor,
		StartDate:   in.StartDate,
		DueDate:     in.DueDate,
		IsPaid:      false,
		CreatedAt:   time.Now(),
		Payments:    []models.DebtPayment{},
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO debts (id, user_id, title, total_amount, remaining, creditor, start_date, due_date, is_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		debt.ID, debt.UserID, debt.Title, debt.TotalAmount, debt.Remaining,
		debt.Creditor, debt.StartDate, debt.DueDate, debt.IsPaid, debt.CreatedAt)
	if err != nil {
		log.Printf("[DEBT] Failed to create debt for user %s: %v", userID, err)
		return nil, storeError(err)
	}

	return debt, nil
}

// List returns the user's debts newest-first by start date, each with its
// full payment history attached.
func (s *DebtService) List(ctx context.Context, userID string) ([]models.Debt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, total_amount, remaining, creditor, start_date, due_date, is_paid, created_at
		FROM debts
		WHERE user_id = $1
		ORDER BY start_date DESC`, userID)
	if err != nil {
		log.Printf("[DEBT] Failed to list debts for user %s: %v", userID, err)
		return nil, storeError(err)
	}
	defer rows.Close()

	debts := []models.Debt{}
	for rows.Next() {
		var d models.Debt
		if err := rows.Scan(&d.ID, &d.UserID, &d.Title, &d.TotalAmount, &d.Remaining,
			&d.Creditor, &d.StartDate, &d.DueDate, &d.IsPaid, &d.CreatedAt); err != nil {
			return nil, storeError(err)
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	for i := range debts {
		payments, err := s.fetchPayments(ctx, debts[i].ID)
		if err != nil {
			return nil, err
		}
		debts[i].Payments = payments
	}

	return debts, nil
}

// ApplyPayment records a payment and moves the running balance in a single
// transaction: the payment row and the debt's remaining/isPaid update commit
// together or not at all. The debt row is locked for the duration, so
// concurrent payments against the same debt serialize and none is lost.
//
// An overpayment is accepted and drives remaining negative; isPaid is
// derived as remaining <= 0 either way.
func (s *DebtService) ApplyPayment(ctx context.Context, userID, debtID string, in ApplyPaymentInput) (*models.DebtPayment, *models.Debt, error) {
	if in.Amount.Sign() <= 0 {
		return nil, nil, invalidInput("amount must be positive")
	}
	if in.Date.IsZero() {
		return nil, nil, invalidInput("date is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("[DEBT] Failed to begin payment transaction: %v", err)
		return nil, nil, storeError(err)
	}
	defer tx.Rollback()

	debt, err := s.lockDebt(tx, userID, debtID)
	if err != nil {
		return nil, nil, err
	}

	payment := &models.DebtPayment{
		ID:        uuid.NewString(),
		DebtID:    debtID,
		Amount:    in.Amount,
		Date:      in.Date,
		Notes:     in.Notes,
		CreatedAt: time.Now(),
	}

	_, err = tx.Exec(`
		INSERT INTO debt_payments (id, debt_id, amount, date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		payment.ID, payment.DebtID, payment.Amount, payment.Date, payment.Notes, payment.CreatedAt)
	if err != nil {
		log.Printf("[DEBT] Failed to insert payment for debt %s: %v", debtID, err)
		return nil, nil, storeError(err)
	}

	debt.Remaining = debt.Remaining.Sub(in.Amount)
	debt.IsPaid = debt.Remaining.Sign() <= 0

	_, err = tx.Exec(`
		UPDATE debts SET remaining = $1, is_paid = $2 WHERE id = $3`,
		debt.Remaining, debt.IsPaid, debt.ID)
	if err != nil {
		log.Printf("[DEBT] Failed to update remaining for debt %s: %v", debtID, err)
		return nil, nil, storeError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[DEBT] Failed to commit payment for debt %s: %v", debtID, err)
		return nil, nil, storeError(err)
	}

	log.Printf("[DEBT] Payment %s applied to debt %s, remaining %s", payment.ID, debtID, debt.Remaining)

	payments, err := s.fetchPayments(ctx, debtID)
	if err != nil {
		return nil, nil, err
	}
	debt.Payments = payments

	return payment, debt, nil
}

func (s *DebtService) Update(ctx context.Context, userID, debtID string, in UpdateDebtInput) (*models.Debt, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, invalidInput("title must not be empty")
	}

	var sets []string
	var args []interface{}
	argIndex := 1

	if in.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argIndex))
		args = append(args, *in.Title)
		argIndex++
	}
	if in.Creditor != nil {
		sets = append(sets, fmt.Sprintf("creditor = $%d", argIndex))
		args = append(args, *in.Creditor)
		argIndex++
	}
	if in.DueDate != nil {
		sets = append(sets, fmt.Sprintf("due_date = $%d", argIndex))
		args = append(args, *in.DueDate)
		argIndex++
	}
	if in.Remaining != nil {
		sets = append(sets, fmt.Sprintf("remaining = $%d", argIndex))
		args = append(args, *in.Remaining)
		argIndex++
	}
	if in.IsPaid != nil {
		sets = append(sets, fmt.Sprintf("is_paid = $%d", argIndex))
		args = append(args, *in.IsPaid)
		argIndex++
	}

	if len(sets) == 0 {
		return nil, invalidInput("no fields to update")
	}

	query := fmt.Sprintf(`
		UPDATE debts SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING id, user_id, title, total_amount, remaining, creditor, start_date, due_date, is_paid, created_at`,
		strings.Join(sets, ", "), argIndex, argIndex+1)
	args = append(args, debtID, userID)

	var d models.Debt
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&d.ID, &d.UserID, &d.Title, &d.TotalAmount, &d.Remaining,
			&d.Creditor, &d.StartDate, &d.DueDate, &d.IsPaid, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("[DEBT] Failed to update debt %s: %v", debtID, err)
		return nil, storeError(err)
	}

	return &d, nil
}

// Delete removes a debt and all of its payments in one transaction.
func (s *DebtService) Delete(ctx context.Context, userID, debtID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError(err)
	}
	defer tx.Rollback()

	var ownerID string
	err = tx.QueryRow(`SELECT user_id FROM debts WHERE id = $1 FOR UPDATE`, debtID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return storeError(err)
	}
	if ownerID != userID {
		return ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM debt_payments WHERE debt_id = $1`, debtID); err != nil {
		log.Printf("[DEBT] Failed to delete payments for debt %s: %v", debtID, err)
		return storeError(err)
	}

	if _, err := tx.Exec(`DELETE FROM debts WHERE id = $1`, debtID); err != nil {
		log.Printf("[DEBT] Failed to delete debt %s: %v", debtID, err)
		return storeError(err)
	}

	if err := tx.Commit(); err != nil {
		return storeError(err)
	}

	return nil
}

// ListActive returns unpaid debts ordered by remaining balance descending,
// for the dashboard's active-debt aggregate.
func (s *DebtService) ListActive(ctx context.Context, userID string) ([]models.Debt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, total_amount, remaining, creditor, start_date, due_date, is_paid, created_at
		FROM debts
		WHERE user_id = $1 AND is_paid = false
		ORDER BY remaining DESC`, userID)
	if err != nil {
		log.Printf("[DEBT] Failed to list active debts for user %s: %v", userID, err)
		return nil, storeError(err)
	}
	defer rows.Close()

	debts := []models.Debt{}
	for rows.Next() {
		var d models.Debt
		if err := rows.Scan(&d.ID, &d.UserID, &d.Title, &d.TotalAmount, &d.Remaining,
			&d.Creditor, &d.StartDate, &d.DueDate, &d.IsPaid, &d.CreatedAt); err != nil {
			return nil, storeError(err)
		}
		debts = append(debts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	return debts, nil
}

// lockDebt loads a debt under FOR UPDATE and verifies ownership. A missing
// debt and a foreign debt are reported identically.
func (s *DebtService) lockDebt(tx *sql.Tx, userID, debtID string) (*models.Debt, error) {
	var d models.Debt
	err := tx.QueryRow(`
		SELECT id, user_id, title, total_amount, remaining, creditor, start_date, due_date, is_paid, created_at
		FROM debts
		WHERE id = $1
		FOR UPDATE`, debtID).
		Scan(&d.ID, &d.UserID, &d.Title, &d.TotalAmount, &d.Remaining,
			&d.Creditor, &d.StartDate, &d.DueDate, &d.IsPaid, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeError(err)
	}
	if d.UserID != userID {
		return nil, ErrNotFound
	}

	return &d, nil
}

func (s *DebtService) fetchPayments(ctx context.Context, debtID string) ([]models.DebtPayment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, debt_id, amount, date, COALESCE(notes, ''), created_at
		FROM debt_payments
		WHERE debt_id = $1
		ORDER BY date ASC`, debtID)
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	payments := []models.DebtPayment{}
	for rows.Next() {
		var p models.DebtPayment
		if err := rows.Scan(&p.ID, &p.DebtID, &p.Amount, &p.Date, &p.Notes, &p.CreatedAt); err != nil {
			return nil, storeError(err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	return payments, nil
}
