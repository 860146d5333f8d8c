package repository

import "github.com/receiptgw/receipt-gateway/internal/model"

type CategoryEntity struct {
	ID     int64  `db:"id"      gorm:"primaryKey;autoIncrement;column:id"`
	UserID int64  `db:"user_id" gorm:"column:user_id;not null;index"`
	Name   string `db:"name"    gorm:"column:name;not null"`
	Type   string `db:"type"    gorm:"column:type;not null"`
}

func (CategoryEntity) TableName() string {
	return "categories"
}

func toCategoryModel(e *CategoryEntity) *model.Category {
	if e == nil {
		return nil
	}
	return &model.Category{
		ID:     e.ID,
		UserID: e.UserID,
		Name:   e.Name,
		Type:   model.CategoryType(e.Type),
	}
}

func toCategoryModels(entities []*CategoryEntity) []*model.Category {
	if entities == nil {
		return nil
	}
	models := make([]*model.Category, len(entities))
	for i, e := range entities {
		models[i] = toCategoryModel(e)
	}
	return models
}
