package repository

import (
	"time"

	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type TransactionEntity struct {
	ID          int64           `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	AccountID   int64           `db:"account_id"  gorm:"column:account_id;not null;index"`
	Amount      decimal.Decimal `db:"amount"      gorm:"column:amount;type:numeric(12,2);not null"`
	CategoryID  int64           `db:"category_id" gorm:"column:category_id;not null"`
	Description string          `db:"description" gorm:"column:description;not null"`
	Date        time.Time       `db:"date"        gorm:"column:date;not null"`
	Type        string          `db:"type"        gorm:"column:type;not null"`
	Currency    string          `db:"currency"    gorm:"column:currency;not null"`
	ReceiptID   *int64          `db:"receipt_id"  gorm:"column:receipt_id;index"` // nullable (ON DELETE SET NULL)
	CreatedAt   time.Time       `db:"created_at"  gorm:"column:created_at;autoCreateTime"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		ID:          m.ID,
		AccountID:   m.AccountID,
		Amount:      m.Amount,
		CategoryID:  m.CategoryID,
		Description: m.Description,
		Date:        m.Date,
		Type:        string(m.Type),
		Currency:    m.Currency,
		ReceiptID:   m.ReceiptID,
		CreatedAt:   m.CreatedAt,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:          e.ID,
		AccountID:   e.AccountID,
		Amount:      e.Amount,
		CategoryID:  e.CategoryID,
		Description: e.Description,
		Date:        e.Date,
		Type:        model.TransactionType(e.Type),
		Currency:    e.Currency,
		ReceiptID:   e.ReceiptID,
		CreatedAt:   e.CreatedAt,
	}
}
