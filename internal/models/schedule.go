package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferSchedule represents a standing order: a recurring transfer from a
// user to one of their buddies, driven by a cron expression.
type TransferSchedule struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	BuddyEmail     string          `json:"buddyEmail"`
	Name           string          `json:"name"`
	CronExpression string          `json:"cronExpression"` // e.g., "0 9 1 * *" for the 1st of each month
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	IsActive       bool            `json:"isActive"`
	LastRunAt      *time.Time      `json:"lastRunAt"`
	NextRunAt      *time.Time      `json:"nextRunAt"`
	CreatedAt      time.Time       `json:"createdAt"`
}
