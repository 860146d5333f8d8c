package repository

import (
	"context"
	"testing"
	"time"

	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReceiptRepository(db.DB)
	ctx := context.Background()

	t.Run("create receipt successfully", func(t *testing.T) {
		rc := &model.Receipt{
			UserID:   1,
			Image:    []byte{0xFF, 0xD8, 0xFF, 0xE0},
			MimeType: "image/jpeg",
			Status:   model.ReceiptStatusPending,
		}

		created, err := repo.Create(ctx, rc)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, rc.UserID, created.UserID)
		assert.Equal(t, rc.Image, created.Image)
		assert.Equal(t, model.ReceiptStatusPending, created.Status)
		assert.NotZero(t, created.CreatedAt)
	})
}

func TestReceiptRepository_Get(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReceiptRepository(db.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Receipt{
		UserID:   7,
		Image:    []byte("img"),
		MimeType: "image/png",
		Status:   model.ReceiptStatusPending,
	})
	require.NoError(t, err)

	t.Run("get existing receipt", func(t *testing.T) {
		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, int64(7), got.UserID)
		assert.Equal(t, []byte("img"), got.Image)
	})

	t.Run("get missing receipt returns ErrNotFound", func(t *testing.T) {
		_, err := repo.Get(ctx, 99999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReceiptRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReceiptRepository(db.DB)
	ctx := context.Background()

	userID := int64(42)
	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, &model.Receipt{
			UserID:   userID,
			Image:    []byte("img"),
			MimeType: "image/jpeg",
			Status:   model.ReceiptStatusPending,
		})
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	t.Run("list all receipts", func(t *testing.T) {
		filter := model.ReceiptFilter{
			UserID: &userID,
			Limit:  10,
		}

		receipts, total, err := repo.List(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, receipts, 5)
	})

	t.Run("list omits image payload", func(t *testing.T) {
		receipts, _, err := repo.List(ctx, model.ReceiptFilter{UserID: &userID, Limit: 1})
		require.NoError(t, err)
		require.Len(t, receipts, 1)
		assert.Empty(t, receipts[0].Image)
	})

	t.Run("list with pagination", func(t *testing.T) {
		filter := model.ReceiptFilter{
			UserID: &userID,
			Limit:  2,
			Offset: 3,
		}

		receipts, total, err := repo.List(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		assert.Len(t, receipts, 2)
	})

	t.Run("list with status filter", func(t *testing.T) {
		filter := model.ReceiptFilter{
			UserID:   &userID,
			Statuses: []model.ReceiptStatus{model.ReceiptStatusProcessed},
			Limit:    10,
		}

		receipts, total, err := repo.List(ctx, filter)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, receipts)
	})

	t.Run("list with desc order", func(t *testing.T) {
		filter := model.ReceiptFilter{
			UserID: &userID,
			Limit:  10,
			Desc:   true,
		}

		receipts, _, err := repo.List(ctx, filter)
		require.NoError(t, err)
		for i := 0; i < len(receipts)-1; i++ {
			assert.True(t, receipts[i].CreatedAt.After(receipts[i+1].CreatedAt) || receipts[i].CreatedAt.Equal(receipts[i+1].CreatedAt))
		}
	})
}

func TestReceiptRepository_SetStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReceiptRepository(db.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Receipt{
		UserID:   1,
		Image:    []byte("img"),
		MimeType: "image/jpeg",
		Status:   model.ReceiptStatusPending,
	})
	require.NoError(t, err)

	t.Run("mark processed with extracted text", func(t *testing.T) {
		text := `{"is_receipt": true}`
		err := repo.SetStatus(ctx, created.ID, model.ReceiptStatusProcessed, &text, nil)
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReceiptStatusProcessed, got.Status)
		require.NotNil(t, got.ExtractedText)
		assert.Equal(t, text, *got.ExtractedText)
		assert.Nil(t, got.ErrorMessage)
	})

	t.Run("mark error with message", func(t *testing.T) {
		msg := "no_categories"
		err := repo.SetStatus(ctx, created.ID, model.ReceiptStatusError, nil, &msg)
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReceiptStatusError, got.Status)
		require.NotNil(t, got.ErrorMessage)
		assert.Equal(t, msg, *got.ErrorMessage)
		// last write wins, previous extracted text is cleared
		assert.Nil(t, got.ExtractedText)
	})

	t.Run("missing receipt returns ErrNotFound", func(t *testing.T) {
		err := repo.SetStatus(ctx, 99999, model.ReceiptStatusError, nil, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestReceiptRepository_UpdateIssuerFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReceiptRepository(db.DB)
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Receipt{
		UserID:   1,
		Image:    []byte("img"),
		MimeType: "image/jpeg",
		Status:   model.ReceiptStatusPending,
	})
	require.NoError(t, err)

	t.Run("persist issuer with coordinates", func(t *testing.T) {
		name := "Coop"
		city := "Zurich"
		lat := 47.3769
		lon := 8.5417
		err := repo.UpdateIssuerFields(ctx, created.ID, model.IssuerFields{
			Name:      &name,
			City:      &city,
			Latitude:  &lat,
			Longitude: &lon,
		})
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got.IssuerName)
		assert.Equal(t, "Coop", *got.IssuerName)
		require.NotNil(t, got.IssuerLatitude)
		assert.InDelta(t, 47.3769, *got.IssuerLatitude, 0.0001)
		assert.Nil(t, got.IssuerStreet)
	})

	t.Run("nil coordinates stay null", func(t *testing.T) {
		name := "Migros"
		err := repo.UpdateIssuerFields(ctx, created.ID, model.IssuerFields{Name: &name})
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, got.IssuerLatitude)
		assert.Nil(t, got.IssuerLongitude)
	})
}

func TestReceiptRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	receipts := NewReceiptRepository(db.DB)
	transactions := NewTransactionRepository(db.DB)
	ctx := context.Background()

	created, err := receipts.Create(ctx, &model.Receipt{
		UserID:   1,
		Image:    []byte("img"),
		MimeType: "image/jpeg",
		Status:   model.ReceiptStatusPending,
	})
	require.NoError(t, err)

	txn, err := transactions.Create(ctx, &model.Transaction{
		AccountID:   1,
		Amount:      decimal.NewFromFloat(12.50),
		CategoryID:  1,
		Description: "groceries",
		Date:        time.Now(),
		Type:        model.TransactionTypeExpense,
		Currency:    "CHF",
		ReceiptID:   &created.ID,
	})
	require.NoError(t, err)

	t.Run("delete detaches linked transaction", func(t *testing.T) {
		err := receipts.Delete(ctx, created.ID)
		require.NoError(t, err)

		_, err = receipts.Get(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		var entity TransactionEntity
		require.NoError(t, db.rawDB.First(&entity, txn.ID).Error)
		assert.Nil(t, entity.ReceiptID)
	})

	t.Run("delete missing receipt returns ErrNotFound", func(t *testing.T) {
		err := receipts.Delete(ctx, 99999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
