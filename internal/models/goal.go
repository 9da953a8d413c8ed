package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a savings target. IsAchieved is recomputed from saved >= target on
// every contribution, but can also be toggled manually to reactivate a goal;
// the manual value holds until the next contribution re-derives it.
type Goal struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"userId" db:"user_id"`
	Title       string          `json:"title" db:"title"`
	Target      decimal.Decimal `json:"target" db:"target"`
	Saved       decimal.Decimal `json:"saved" db:"saved"`
	Deadline    *time.Time      `json:"deadline,omitempty" db:"deadline"`
	Description string          `json:"description,omitempty" db:"description"`
	IsAchieved  bool            `json:"isAchieved" db:"is_achieved"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}
