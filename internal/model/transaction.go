package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType mirrors CategoryType, a transaction inherits the type
// the model reported or defaults to expense.
type TransactionType string

const (
	TransactionTypeExpense TransactionType = "expense"
	TransactionTypeIncome  TransactionType = "income"
)

type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  int64           `json:"category_id"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Type        TransactionType `json:"type"`
	Currency    string          `json:"currency"`
	ReceiptID   *int64          `json:"receipt_id,omitempty"` // nullable (ON DELETE SET NULL)
	CreatedAt   time.Time       `json:"created_at"`
}
