package repository

import (
	"context"
	"errors"

	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/receiptgw/receipt-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a receipt does not exist.
	ErrNotFound = errors.New("receipt not found")
)

type ReceiptRepository struct {
	*pg.DB
}

func NewReceiptRepository(db *pg.DB) *ReceiptRepository {
	return &ReceiptRepository{
		db,
	}
}

func (r *ReceiptRepository) Create(ctx context.Context, rc *model.Receipt) (*model.Receipt, error) {
	entity := toReceiptEntity(rc)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toReceiptModel(entity), nil
}

func (r *ReceiptRepository) Get(ctx context.Context, id int64) (*model.Receipt, error) {
	var entity ReceiptEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toReceiptModel(&entity), nil
}

func (r *ReceiptRepository) List(ctx context.Context, f model.ReceiptFilter) ([]*model.Receipt, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ReceiptEntity{})

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	// Count before pagination
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at"
	if f.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*ReceiptEntity
	// image blobs stay out of list responses
	if err := q.Omit("image").Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toReceiptModels(entities), total, nil
}

// SetStatus records the terminal outcome of an analysis run. Exactly one of
// extractedText/errorMessage is usually set, both may be nil.
func (r *ReceiptRepository) SetStatus(ctx context.Context, id int64, status model.ReceiptStatus, extractedText, errorMessage *string) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ReceiptEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         string(status),
			"extracted_text": extractedText,
			"error_message":  errorMessage,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateIssuerFields persists the merchant identity extracted from the
// receipt plus the geocoded coordinates, which may be nil.
func (r *ReceiptRepository) UpdateIssuerFields(ctx context.Context, id int64, f model.IssuerFields) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&ReceiptEntity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"issuer_name":        f.Name,
			"issuer_street":      f.Street,
			"issuer_city":        f.City,
			"issuer_postal_code": f.PostalCode,
			"issuer_country":     f.Country,
			"issuer_latitude":    f.Latitude,
			"issuer_longitude":   f.Longitude,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a receipt. Any transaction produced from it survives with
// its receipt link cleared, so the ledger stays intact.
func (r *ReceiptRepository) Delete(ctx context.Context, id int64) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.Write(ctx).WithContext(ctx).
			Model(&TransactionEntity{}).
			Where("receipt_id = ?", id).
			Update("receipt_id", nil).Error; err != nil {
			return err
		}

		result := r.Write(ctx).WithContext(ctx).
			Where("id = ?", id).
			Delete(&ReceiptEntity{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
