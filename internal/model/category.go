package model

// CategoryType distinguishes spending from earning categories.
type CategoryType string

const (
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeIncome  CategoryType = "income"
)

type Category struct {
	ID     int64        `json:"id"`
	UserID int64        `json:"user_id"`
	Name   string       `json:"name"`
	Type   CategoryType `json:"type"`
}
