package repository

import (
	"context"
	"errors"

	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/receiptgw/receipt-gateway/pkg/pg"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	*pg.DB
}

func NewCategoryRepository(db *pg.DB) *CategoryRepository {
	return &CategoryRepository{
		db,
	}
}

func (r *CategoryRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Category, error) {
	var entities []*CategoryEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toCategoryModels(entities), nil
}

// FindIDByName resolves a category by case-insensitive exact name match
// scoped to the owner. Returns (nil, nil) when no category matches, the
// caller treats that as a business outcome rather than an error.
func (r *CategoryRepository) FindIDByName(ctx context.Context, userID int64, name string) (*int64, error) {
	var entity CategoryEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity.ID, nil
}
