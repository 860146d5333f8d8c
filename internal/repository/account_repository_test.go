package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_GetOrCreatePrimary(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db.DB)
	ctx := context.Background()

	t.Run("creates account when user has none", func(t *testing.T) {
		account, err := repo.GetOrCreatePrimary(ctx, 1, "Main account", "CHF")
		require.NoError(t, err)
		assert.NotZero(t, account.ID)
		assert.Equal(t, int64(1), account.UserID)
		assert.Equal(t, "Main account", account.Name)
		assert.Equal(t, "CHF", account.Currency)
		assert.True(t, account.Balance.IsZero())
	})

	t.Run("returns existing account on second call", func(t *testing.T) {
		first, err := repo.GetOrCreatePrimary(ctx, 2, "Main account", "CHF")
		require.NoError(t, err)

		second, err := repo.GetOrCreatePrimary(ctx, 2, "Other name", "EUR")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Main account", second.Name)
	})

	t.Run("returns the oldest account when several exist", func(t *testing.T) {
		a := &AccountEntity{UserID: 3, Name: "first", Currency: "CHF"}
		require.NoError(t, db.rawDB.Create(a).Error)
		b := &AccountEntity{UserID: 3, Name: "second", Currency: "CHF"}
		require.NoError(t, db.rawDB.Create(b).Error)

		account, err := repo.GetOrCreatePrimary(ctx, 3, "Main account", "CHF")
		require.NoError(t, err)
		assert.Equal(t, a.ID, account.ID)
	})
}
