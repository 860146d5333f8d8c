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

func TestTransactionRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db.DB)
	ctx := context.Background()

	t.Run("create transaction with receipt link", func(t *testing.T) {
		receiptID := int64(10)
		txn := &model.Transaction{
			AccountID:   1,
			Amount:      decimal.RequireFromString("23.95"),
			CategoryID:  2,
			Description: "Expense from receipt",
			Date:        time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
			Type:        model.TransactionTypeExpense,
			Currency:    "CHF",
			ReceiptID:   &receiptID,
		}

		created, err := repo.Create(ctx, txn)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.True(t, created.Amount.Equal(decimal.RequireFromString("23.95")))
		require.NotNil(t, created.ReceiptID)
		assert.Equal(t, receiptID, *created.ReceiptID)
		assert.NotZero(t, created.CreatedAt)
	})

	t.Run("create transaction without receipt", func(t *testing.T) {
		txn := &model.Transaction{
			AccountID:   1,
			Amount:      decimal.NewFromInt(100),
			CategoryID:  3,
			Description: "manual entry",
			Date:        time.Now(),
			Type:        model.TransactionTypeIncome,
			Currency:    "CHF",
		}

		created, err := repo.Create(ctx, txn)
		require.NoError(t, err)
		assert.Nil(t, created.ReceiptID)
	})
}

func TestTransactionRepository_FindByReceipt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db.DB)
	ctx := context.Background()

	receiptID := int64(55)
	created, err := repo.Create(ctx, &model.Transaction{
		AccountID:   1,
		Amount:      decimal.NewFromFloat(9.90),
		CategoryID:  1,
		Description: "coffee",
		Date:        time.Now(),
		Type:        model.TransactionTypeExpense,
		Currency:    "CHF",
		ReceiptID:   &receiptID,
	})
	require.NoError(t, err)

	t.Run("finds linked transaction", func(t *testing.T) {
		got, err := repo.FindByReceipt(ctx, receiptID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("returns nil for unlinked receipt", func(t *testing.T) {
		got, err := repo.FindByReceipt(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
