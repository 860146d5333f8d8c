package repository

import (
	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type AccountEntity struct {
	ID       int64           `db:"id"       gorm:"primaryKey;autoIncrement;column:id"`
	UserID   int64           `db:"user_id"  gorm:"column:user_id;not null;index"`
	Name     string          `db:"name"     gorm:"column:name;not null"`
	Currency string          `db:"currency" gorm:"column:currency;not null"`
	Balance  decimal.Decimal `db:"balance"  gorm:"column:balance;type:numeric(14,2);not null;default:0"`
}

func (AccountEntity) TableName() string {
	return "accounts"
}

func toAccountModel(e *AccountEntity) *model.Account {
	if e == nil {
		return nil
	}
	return &model.Account{
		ID:       e.ID,
		UserID:   e.UserID,
		Name:     e.Name,
		Currency: e.Currency,
		Balance:  e.Balance,
	}
}
