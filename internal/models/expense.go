package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single spending record. Amounts are exact decimals; binary
// floats drift when summed repeatedly in rollups.
type Expense struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"userId" db:"user_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Category    string          `json:"category" db:"category"`
	Description string          `json:"description,omitempty" db:"description"`
	Date        time.Time       `json:"date" db:"date"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}
