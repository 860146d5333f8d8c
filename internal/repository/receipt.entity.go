package repository

import (
	"time"

	"github.com/receiptgw/receipt-gateway/internal/model"
)

type ReceiptEntity struct {
	ID            int64     `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	UserID        int64     `db:"user_id"        gorm:"column:user_id;not null;index"`
	Image         []byte    `db:"image"          gorm:"column:image;not null"`
	MimeType      string    `db:"mime_type"      gorm:"column:mime_type;not null;default:image/jpeg"`
	Status        string    `db:"status"         gorm:"column:status;not null;default:pending;index"`
	ExtractedText *string   `db:"extracted_text" gorm:"column:extracted_text"`
	ErrorMessage  *string   `db:"error_message"  gorm:"column:error_message"`
	CreatedAt     time.Time `db:"created_at"     gorm:"column:created_at;autoCreateTime"`

	IssuerName       *string  `db:"issuer_name"        gorm:"column:issuer_name"`
	IssuerStreet     *string  `db:"issuer_street"      gorm:"column:issuer_street"`
	IssuerCity       *string  `db:"issuer_city"        gorm:"column:issuer_city"`
	IssuerPostalCode *string  `db:"issuer_postal_code" gorm:"column:issuer_postal_code"`
	IssuerCountry    *string  `db:"issuer_country"     gorm:"column:issuer_country"`
	IssuerLatitude   *float64 `db:"issuer_latitude"    gorm:"column:issuer_latitude"`
	IssuerLongitude  *float64 `db:"issuer_longitude"   gorm:"column:issuer_longitude"`
}

func (ReceiptEntity) TableName() string {
	return "receipts"
}

func toReceiptEntity(m *model.Receipt) *ReceiptEntity {
	if m == nil {
		return nil
	}
	return &ReceiptEntity{
		ID:               m.ID,
		UserID:           m.UserID,
		Image:            m.Image,
		MimeType:         m.MimeType,
		Status:           string(m.Status),
		ExtractedText:    m.ExtractedText,
		ErrorMessage:     m.ErrorMessage,
		CreatedAt:        m.CreatedAt,
		IssuerName:       m.IssuerName,
		IssuerStreet:     m.IssuerStreet,
		IssuerCity:       m.IssuerCity,
		IssuerPostalCode: m.IssuerPostalCode,
		IssuerCountry:    m.IssuerCountry,
		IssuerLatitude:   m.IssuerLatitude,
		IssuerLongitude:  m.IssuerLongitude,
	}
}

func toReceiptModel(e *ReceiptEntity) *model.Receipt {
	if e == nil {
		return nil
	}
	return &model.Receipt{
		ID:               e.ID,
		UserID:           e.UserID,
		Image:            e.Image,
		MimeType:         e.MimeType,
		Status:           model.ReceiptStatus(e.Status),
		ExtractedText:    e.ExtractedText,
		ErrorMessage:     e.ErrorMessage,
		CreatedAt:        e.CreatedAt,
		IssuerName:       e.IssuerName,
		IssuerStreet:     e.IssuerStreet,
		IssuerCity:       e.IssuerCity,
		IssuerPostalCode: e.IssuerPostalCode,
		IssuerCountry:    e.IssuerCountry,
		IssuerLatitude:   e.IssuerLatitude,
		IssuerLongitude:  e.IssuerLongitude,
	}
}

func toReceiptModels(entities []*ReceiptEntity) []*model.Receipt {
	if entities == nil {
		return nil
	}
	models := make([]*model.Receipt, len(entities))
	for i, e := range entities {
		models[i] = toReceiptModel(e)
	}
	return models
}
