package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/receiptgw/receipt-gateway/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetReceipt(ctx context.Context, id int64) (*model.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Receipt), args.Error(1)
}

func (m *MockStore) ListCategories(ctx context.Context, userID int64) ([]*model.Category, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Category), args.Error(1)
}

func (m *MockStore) GetOrCreatePrimaryAccount(ctx context.Context, userID int64) (*model.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockStore) FindCategoryIDByName(ctx context.Context, userID int64, name string) (*int64, error) {
	args := m.Called(ctx, userID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

func (m *MockStore) InsertTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockStore) UpdateIssuerFields(ctx context.Context, receiptID int64, fields model.IssuerFields) error {
	args := m.Called(ctx, receiptID, fields)
	return args.Error(0)
}

func (m *MockStore) SetReceiptStatus(ctx context.Context, receiptID int64, status model.ReceiptStatus, extractedText, errorMessage *string) error {
	args := m.Called(ctx, receiptID, status, extractedText, errorMessage)
	return args.Error(0)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	args := m.Called(ctx, image, mimeType, prompt)
	return args.String(0), args.Error(1)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*float64, *float64) {
	args := m.Called(ctx, address)
	var lat, lon *float64
	if args.Get(0) != nil {
		lat = args.Get(0).(*float64)
	}
	if args.Get(1) != nil {
		lon = args.Get(1).(*float64)
	}
	return lat, lon
}

func testReceipt() *model.Receipt {
	return &model.Receipt{
		ID:       10,
		UserID:   1,
		Image:    []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3},
		MimeType: "image/jpeg",
		Status:   model.ReceiptStatusPending,
	}
}

func testCategories() []*model.Category {
	return []*model.Category{
		{ID: 5, UserID: 1, Name: "Groceries", Type: model.CategoryTypeExpense},
		{ID: 6, UserID: 1, Name: "Salary", Type: model.CategoryTypeIncome},
	}
}

func newTestAnalyzer(store *MockStore, extractor *MockExtractor, geocoder *MockGeocoder) *Analyzer {
	return NewAnalyzer(store, extractor, geocoder, Options{})
}

func TestAnalyze_ReceiptNotFound(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	store.On("GetReceipt", ctx, int64(10)).Return(nil, repository.ErrNotFound)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, nil)

	assert.Equal(t, model.AnalysisError, result.Status)
	assert.True(t, result.NotFound)
	// no row exists, so no status write happens
	store.AssertNotCalled(t, "SetReceiptStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyze_NoOwner(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	receipt := testReceipt()
	receipt.UserID = 0
	store.On("GetReceipt", ctx, int64(10)).Return(receipt, nil)
	store.On("SetReceiptStatus", ctx, int64(10), model.ReceiptStatusError, (*string)(nil), mock.Anything).Return(nil)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, nil)

	assert.Equal(t, model.AnalysisError, result.Status)
	store.AssertExpectations(t)
}

func TestAnalyze_OwnerOverride(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	receipt := testReceipt()
	receipt.UserID = 0 // owner only known from the job
	owner := int64(42)

	store.On("GetReceipt", ctx, int64(10)).Return(receipt, nil)
	store.On("ListCategories", ctx, owner).Return([]*model.Category{}, nil)
	store.On("SetReceiptStatus", ctx, int64(10), model.ReceiptStatusError, (*string)(nil), mock.Anything).Return(nil)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, &owner)

	assert.Equal(t, model.AnalysisNoCategories, result.Status)
	store.AssertExpectations(t)
}

func TestAnalyze_NoCategoriesSkipsModelCall(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	store.On("GetReceipt", ctx, int64(10)).Return(testReceipt(), nil)
	store.On("ListCategories", ctx, int64(1)).Return([]*model.Category{}, nil)
	store.On("SetReceiptStatus", ctx, int64(10), model.ReceiptStatusError, (*string)(nil), mock.Anything).Return(nil)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, nil)

	assert.Equal(t, model.AnalysisNoCategories, result.Status)
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyze_NotAReceipt(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	store.On("GetReceipt", ctx, int64(10)).Return(testReceipt(), nil)
	store.On("ListCategories", ctx, int64(1)).Return(testCategories(), nil)
	extractor.On("Extract", ctx, mock.Anything, "image/jpeg", mock.Anything).
		Return(`{"is_receipt": false}`, nil)
	store.On("SetReceiptStatus", ctx, int64(10), model.ReceiptStatusError, (*string)(nil), mock.Anything).Return(nil)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, nil)

	assert.Equal(t, model.AnalysisIgnored, result.Status)
	assert.Equal(t, false, result.Record["is_receipt"])
	store.AssertNotCalled(t, "InsertTransaction", mock.Anything, mock.Anything)
}

func TestAnalyze_IncompleteRecord(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	store.On("GetReceipt", ctx, int64(10)).Return(testReceipt(), nil)
	store.On("ListCategories", ctx, int64(1)).Return(testCategories(), nil)
	extractor.On("Extract", ctx, mock.Anything, "image/jpeg", mock.Anything).
		Return(`{"is_receipt": true, "total_amount": null, "category": "Groceries"}`, nil)
	store.On("SetReceiptStatus", ctx, int64(10), model.ReceiptStatusError, (*string)(nil), mock.Anything).Return(nil)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, nil)

	assert.Equal(t, model.AnalysisIncomplete, result.Status)
	store.AssertNotCalled(t, "InsertTransaction", mock.Anything, mock.Anything)
}

func TestAnalyze_CategoryNotFound(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	store.On("GetReceipt", ctx, int64(10)).Return(testReceipt(), nil)
	store.On("ListCategories", ctx, int64(1)).Return(testCategories(), nil)
	extractor.On("Extract", ctx, mock.Anything, "image/jpeg", mock.Anything).
		Return(`{"is_receipt": true, "total_amount": 12.50, "category": "Restaurants"}`, nil)
	store.On("GetOrCreatePrimaryAccount", ctx, int64(1)).Return(&model.Account{ID: 3, UserID: 1}, nil)
	store.On("FindCategoryIDByName", ctx, int64(1), "Restaurants").Return(nil, nil)
	store.On("SetReceiptStatus", ctx, int64(10), model.ReceiptStatusError, (*string)(nil), mock.Anything).Return(nil)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, nil)

	assert.Equal(t, model.AnalysisCategoryNotFound, result.Status)
	assert.Contains(t, result.Message, "Restaurants")
	store.AssertNotCalled(t, "InsertTransaction", mock.Anything, mock.Anything)
}

func TestAnalyze_ExtractorFailure(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	store.On("GetReceipt", ctx, int64(10)).Return(testReceipt(), nil)
	store.On("ListCategories", ctx, int64(1)).Return(testCategories(), nil)
	extractor.On("Extract", ctx, mock.Anything, "image/jpeg", mock.Anything).
		Return("", assert.AnError)
	store.On("SetReceiptStatus", ctx, int64(10), model.ReceiptStatusError, (*string)(nil), mock.Anything).Return(nil)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, nil)

	assert.Equal(t, model.AnalysisError, result.Status)
}

func TestAnalyze_MalformedModelOutput(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	store.On("GetReceipt", ctx, int64(10)).Return(testReceipt(), nil)
	store.On("ListCategories", ctx, int64(1)).Return(testCategories(), nil)
	extractor.On("Extract", ctx, mock.Anything, "image/jpeg", mock.Anything).
		Return("the receipt shows a total of 12.50", nil)

	var storedMessage *string
	store.On("SetReceiptStatus", ctx, int64(10), model.ReceiptStatusError, (*string)(nil), mock.Anything).
		Run(func(args mock.Arguments) {
			storedMessage = args.Get(4).(*string)
		}).
		Return(nil)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, nil)

	assert.Equal(t, model.AnalysisError, result.Status)
	require.NotNil(t, storedMessage)
	assert.Contains(t, *storedMessage, "not valid JSON")
}

func TestAnalyze_Success(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	rawText := "```json\n" + `{
  "is_receipt": true,
  "total_amount": 23.75,
  "currency": "EUR",
  "transaction_date": "2026-03-14",
  "category": "Groceries",
  "description": "Weekly shopping",
  "type": "expense",
  "issuer_name": "Coop",
  "issuer_street": "Bahnhofstrasse 1",
  "issuer_city": "Zurich",
  "issuer_postal_code": "8001",
  "issuer_country": "Switzerland"
}` + "\n```"

	store.On("GetReceipt", ctx, int64(10)).Return(testReceipt(), nil)
	store.On("ListCategories", ctx, int64(1)).Return(testCategories(), nil)
	extractor.On("Extract", ctx, mock.Anything, "image/jpeg", mock.Anything).Return(rawText, nil)
	store.On("GetOrCreatePrimaryAccount", ctx, int64(1)).Return(&model.Account{ID: 3, UserID: 1}, nil)

	categoryID := int64(5)
	store.On("FindCategoryIDByName", ctx, int64(1), "Groceries").Return(&categoryID, nil)

	var inserted *model.Transaction
	store.On("InsertTransaction", ctx, mock.Anything).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*model.Transaction)
		}).
		Return(&model.Transaction{ID: 99}, nil)

	lat, lon := 47.3769, 8.5417
	geocoder.On("Geocode", ctx, "Bahnhofstrasse 1, 8001, Zurich, Switzerland").Return(&lat, &lon)

	var issuer model.IssuerFields
	store.On("UpdateIssuerFields", ctx, int64(10), mock.Anything).
		Run(func(args mock.Arguments) {
			issuer = args.Get(2).(model.IssuerFields)
		}).
		Return(nil)

	var extractedText *string
	store.On("SetReceiptStatus", ctx, int64(10), model.ReceiptStatusProcessed, mock.Anything, (*string)(nil)).
		Run(func(args mock.Arguments) {
			extractedText = args.Get(3).(*string)
		}).
		Return(nil)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, nil)

	require.Equal(t, model.AnalysisProcessed, result.Status)
	require.NotNil(t, result.TransactionID)
	assert.Equal(t, int64(99), *result.TransactionID)

	require.NotNil(t, inserted)
	assert.True(t, inserted.Amount.Equal(decimal.RequireFromString("23.75")))
	assert.Equal(t, int64(5), inserted.CategoryID)
	assert.Equal(t, int64(3), inserted.AccountID)
	assert.Equal(t, "EUR", inserted.Currency)
	assert.Equal(t, "Weekly shopping", inserted.Description)
	assert.Equal(t, model.TransactionTypeExpense, inserted.Type)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), inserted.Date)
	require.NotNil(t, inserted.ReceiptID)
	assert.Equal(t, int64(10), *inserted.ReceiptID)

	require.NotNil(t, issuer.Name)
	assert.Equal(t, "Coop", *issuer.Name)
	require.NotNil(t, issuer.Latitude)
	assert.Equal(t, 47.3769, *issuer.Latitude)

	// raw model text stored verbatim, fence intact
	require.NotNil(t, extractedText)
	assert.Equal(t, rawText, *extractedText)

	store.AssertNumberOfCalls(t, "InsertTransaction", 1)
	store.AssertExpectations(t)
}

func TestAnalyze_DefaultsApplied(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	store.On("GetReceipt", ctx, int64(10)).Return(testReceipt(), nil)
	store.On("ListCategories", ctx, int64(1)).Return(testCategories(), nil)
	extractor.On("Extract", ctx, mock.Anything, "image/jpeg", mock.Anything).
		Return(`{"is_receipt": true, "total_amount": "9.90", "category": "Groceries"}`, nil)
	store.On("GetOrCreatePrimaryAccount", ctx, int64(1)).Return(&model.Account{ID: 3, UserID: 1}, nil)

	categoryID := int64(5)
	store.On("FindCategoryIDByName", ctx, int64(1), "Groceries").Return(&categoryID, nil)

	var inserted *model.Transaction
	store.On("InsertTransaction", ctx, mock.Anything).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*model.Transaction)
		}).
		Return(&model.Transaction{ID: 100}, nil)
	store.On("UpdateIssuerFields", ctx, int64(10), mock.Anything).Return(nil)
	store.On("SetReceiptStatus", ctx, int64(10), model.ReceiptStatusProcessed, mock.Anything, (*string)(nil)).Return(nil)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, nil)

	require.Equal(t, model.AnalysisProcessed, result.Status)
	require.NotNil(t, inserted)
	assert.Equal(t, "CHF", inserted.Currency)
	assert.Equal(t, "Expense from receipt", inserted.Description)
	assert.Equal(t, model.TransactionTypeExpense, inserted.Type)
	assert.Equal(t, time.Now().UTC().Truncate(24*time.Hour), inserted.Date)
	// all issuer fields absent, so there is no address to geocode
	geocoder.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
}

func TestAnalyze_GeocodeFailureStillProcessed(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	store.On("GetReceipt", ctx, int64(10)).Return(testReceipt(), nil)
	store.On("ListCategories", ctx, int64(1)).Return(testCategories(), nil)
	extractor.On("Extract", ctx, mock.Anything, "image/jpeg", mock.Anything).
		Return(`{"is_receipt": true, "total_amount": 5, "category": "Groceries", "issuer_city": "Bern"}`, nil)
	store.On("GetOrCreatePrimaryAccount", ctx, int64(1)).Return(&model.Account{ID: 3, UserID: 1}, nil)

	categoryID := int64(5)
	store.On("FindCategoryIDByName", ctx, int64(1), "Groceries").Return(&categoryID, nil)
	store.On("InsertTransaction", ctx, mock.Anything).Return(&model.Transaction{ID: 101}, nil)

	geocoder.On("Geocode", ctx, "Bern").Return(nil, nil)

	var issuer model.IssuerFields
	store.On("UpdateIssuerFields", ctx, int64(10), mock.Anything).
		Run(func(args mock.Arguments) {
			issuer = args.Get(2).(model.IssuerFields)
		}).
		Return(nil)
	store.On("SetReceiptStatus", ctx, int64(10), model.ReceiptStatusProcessed, mock.Anything, (*string)(nil)).Return(nil)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, nil)

	assert.Equal(t, model.AnalysisProcessed, result.Status)
	require.NotNil(t, issuer.City)
	assert.Equal(t, "Bern", *issuer.City)
	assert.Nil(t, issuer.Latitude)
	assert.Nil(t, issuer.Longitude)
}

func TestAnalyze_EmptyImage(t *testing.T) {
	store := new(MockStore)
	extractor := new(MockExtractor)
	geocoder := new(MockGeocoder)
	ctx := context.Background()

	receipt := testReceipt()
	receipt.Image = nil
	store.On("GetReceipt", ctx, int64(10)).Return(receipt, nil)
	store.On("SetReceiptStatus", ctx, int64(10), model.ReceiptStatusError, (*string)(nil), mock.Anything).Return(nil)

	result := newTestAnalyzer(store, extractor, geocoder).Analyze(ctx, 10, nil)

	assert.Equal(t, model.AnalysisError, result.Status)
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
