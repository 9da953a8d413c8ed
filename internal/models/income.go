package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Income is a single earning record.
type Income struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"userId" db:"user_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Source    string          `json:"source" db:"source"`
	Date      time.Time       `json:"date" db:"date"`
	Notes     string          `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}
