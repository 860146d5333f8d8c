package pg

import "time"

// Model is the embedded base for all persisted entities.
type Model struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
