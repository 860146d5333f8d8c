package analyzer

import (
	"context"

	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/receiptgw/receipt-gateway/internal/repository"
)

// RepositoryStore adapts the gorm repositories to the Store interface the
// orchestrator consumes.
type RepositoryStore struct {
	receipts        *repository.ReceiptRepository
	categories      *repository.CategoryRepository
	accounts        *repository.AccountRepository
	transactions    *repository.TransactionRepository
	accountName     string
	accountCurrency string
}

func NewRepositoryStore(
	receipts *repository.ReceiptRepository,
	categories *repository.CategoryRepository,
	accounts *repository.AccountRepository,
	transactions *repository.TransactionRepository,
	accountName, accountCurrency string,
) *RepositoryStore {
	return &RepositoryStore{
		receipts:        receipts,
		categories:      categories,
		accounts:        accounts,
		transactions:    transactions,
		accountName:     accountName,
		accountCurrency: accountCurrency,
	}
}

func (s *RepositoryStore) GetReceipt(ctx context.Context, id int64) (*model.Receipt, error) {
	return s.receipts.Get(ctx, id)
}

func (s *RepositoryStore) ListCategories(ctx context.Context, userID int64) ([]*model.Category, error) {
	return s.categories.ListByUser(ctx, userID)
}

func (s *RepositoryStore) GetOrCreatePrimaryAccount(ctx context.Context, userID int64) (*model.Account, error) {
	return s.accounts.GetOrCreatePrimary(ctx, userID, s.accountName, s.accountCurrency)
}

func (s *RepositoryStore) FindCategoryIDByName(ctx context.Context, userID int64, name string) (*int64, error) {
	return s.categories.FindIDByName(ctx, userID, name)
}

func (s *RepositoryStore) InsertTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	return s.transactions.Create(ctx, txn)
}

func (s *RepositoryStore) UpdateIssuerFields(ctx context.Context, receiptID int64, fields model.IssuerFields) error {
	return s.receipts.UpdateIssuerFields(ctx, receiptID, fields)
}

func (s *RepositoryStore) SetReceiptStatus(ctx context.Context, receiptID int64, status model.ReceiptStatus, extractedText, errorMessage *string) error {
	return s.receipts.SetStatus(ctx, receiptID, status, extractedText, errorMessage)
}
