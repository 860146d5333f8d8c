package repository

import (
	"context"
	"errors"

	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/receiptgw/receipt-gateway/pkg/pg"
	"gorm.io/gorm"
)

type AccountRepository struct {
	*pg.DB
}

func NewAccountRepository(db *pg.DB) *AccountRepository {
	return &AccountRepository{
		db,
	}
}

// GetOrCreatePrimary returns the user's oldest account, creating one with
// the given name and currency if the user has none. Every user owns at
// least one account by the time a transaction is inserted.
func (r *AccountRepository) GetOrCreatePrimary(ctx context.Context, userID int64, name, currency string) (*model.Account, error) {
	var entity AccountEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		First(&entity).
		Error
	if err == nil {
		return toAccountModel(&entity), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entity = AccountEntity{
		UserID:   userID,
		Name:     name,
		Currency: currency,
	}
	if err := r.Write(ctx).WithContext(ctx).Create(&entity).Error; err != nil {
		return nil, err
	}
	return toAccountModel(&entity), nil
}
