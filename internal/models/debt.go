package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debt tracks an amount owed and its payoff state. Remaining and IsPaid are
// maintained by the debt ledger: every payment application rewrites both in
// the same transaction, so IsPaid always equals remaining <= 0.
type Debt struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"userId" db:"user_id"`
	Title       string          `json:"title" db:"title"`
	TotalAmount decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Remaining   decimal.Decimal `json:"remaining" db:"remaining"`
	Creditor    string          `json:"creditor" db:"creditor"`
	StartDate   time.Time       `json:"startDate" db:"start_date"`
	DueDate     *time.Time      `json:"dueDate,omitempty" db:"due_date"`
	IsPaid      bool            `json:"isPaid" db:"is_paid"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	Payments    []DebtPayment   `json:"payments,omitempty"`
}

// DebtPayment is one installment against a debt. Deleting the debt removes
// its payments with it.
type DebtPayment struct {
	ID        string          `json:"id" db:"id"`
	DebtID    string          `json:"debtId" db:"debt_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Date      time.Time       `json:"date" db:"date"`
	Notes     string          `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}
