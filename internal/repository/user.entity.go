package repository

import "github.com/receiptgw/receipt-gateway/internal/model"

type UserEntity struct {
	ID    int64  `db:"id"    gorm:"primaryKey;autoIncrement;column:id"`
	Email string `db:"email" gorm:"column:email;not null;uniqueIndex"`
	Name  string `db:"name"  gorm:"column:name;not null"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:    e.ID,
		Email: e.Email,
		Name:  e.Name,
	}
}
