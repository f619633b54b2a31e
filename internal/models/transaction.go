package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TransactionTransfer = "transfer"
	TransactionDeposit  = "deposit"
	TransactionWithdraw = "withdraw"
)

// Transaction records a single movement of money. Deposits and withdrawals are
// stored as self-transactions (sender and receiver are the same account).
type Transaction struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"` // "transfer", "deposit" or "withdraw"
	SenderID    string          `json:"senderId"`
	ReceiverID  string          `json:"receiverId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}
