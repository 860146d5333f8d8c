// Package analyzer drives an uploaded receipt through model extraction and
// either produces a persisted transaction or a recorded error. Analyze
// always returns a result descriptor and never panics past its boundary.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	gateway "github.com/receiptgw/receipt-gateway/internal/gateways"
	"github.com/receiptgw/receipt-gateway/internal/imaging"
	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/receiptgw/receipt-gateway/internal/repository"
	"github.com/receiptgw/receipt-gateway/pkg/logger"
)

// Store is the persistence surface the orchestrator needs. Each call is
// independently scoped, there is no long-lived transaction spanning steps.
type Store interface {
	GetReceipt(ctx context.Context, id int64) (*model.Receipt, error)
	ListCategories(ctx context.Context, userID int64) ([]*model.Category, error)
	GetOrCreatePrimaryAccount(ctx context.Context, userID int64) (*model.Account, error)
	FindCategoryIDByName(ctx context.Context, userID int64, name string) (*int64, error)
	InsertTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	UpdateIssuerFields(ctx context.Context, receiptID int64, fields model.IssuerFields) error
	SetReceiptStatus(ctx context.Context, receiptID int64, status model.ReceiptStatus, extractedText, errorMessage *string) error
}

// Options carries the fallback values applied when the model leaves
// optional fields empty.
type Options struct {
	DefaultCurrency    string
	DefaultDescription string
	AutoAccountName    string
}

type Analyzer struct {
	store     Store
	extractor gateway.Extractor
	geocoder  gateway.Geocoder
	opts      Options
}

// NewAnalyzer builds an orchestrator around explicitly injected
// collaborators. The extractor is expected to be shared across concurrent
// analyses, it is stateless per call.
func NewAnalyzer(store Store, extractor gateway.Extractor, geocoder gateway.Geocoder, opts Options) *Analyzer {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "CHF"
	}
	if opts.DefaultDescription == "" {
		opts.DefaultDescription = "Expense from receipt"
	}
	if opts.AutoAccountName == "" {
		opts.AutoAccountName = "Main account"
	}
	return &Analyzer{
		store:     store,
		extractor: extractor,
		geocoder:  geocoder,
		opts:      opts,
	}
}

// Analyze runs one receipt through the pipeline. userID overrides the
// receipt's stored owner when non-nil. The receipt row receives exactly
// one status-mutating update per invocation; at most one transaction is
// inserted. Concurrent calls for the same receipt are not excluded here,
// callers serialize via the queue worker's per-receipt lock.
func (a *Analyzer) Analyze(ctx context.Context, receiptID int64, userID *int64) (result *model.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("analysis panicked", "receipt_id", receiptID, "panic", r)
			result = &model.AnalysisResult{
				ReceiptID: receiptID,
				Status:    model.AnalysisError,
				Message:   fmt.Sprintf("unexpected failure: %v", r),
			}
		}
	}()

	receipt, err := a.store.GetReceipt(ctx, receiptID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// no row to mark, the caller maps this to a 404
			return &model.AnalysisResult{
				ReceiptID: receiptID,
				Status:    model.AnalysisError,
				Message:   "receipt not found",
				NotFound:  true,
			}
		}
		return a.fail(ctx, receiptID, model.AnalysisError, err.Error(), nil)
	}

	ownerID := receipt.UserID
	if userID != nil {
		ownerID = *userID
	}
	if ownerID == 0 {
		return a.fail(ctx, receiptID, model.AnalysisError, "receipt is not associated with a user", nil)
	}

	if len(receipt.Image) == 0 {
		return a.fail(ctx, receiptID, model.AnalysisError, "receipt has no image data", nil)
	}

	categories, err := a.store.ListCategories(ctx, ownerID)
	if err != nil {
		return a.fail(ctx, receiptID, model.AnalysisError, err.Error(), nil)
	}
	if len(categories) == 0 {
		// skip the model call entirely, there is nowhere to file the result
		return a.fail(ctx, receiptID, model.AnalysisNoCategories, "no categories configured for this user", nil)
	}

	prompt := BuildPrompt(categories)
	mediaType := imaging.DetectMediaType(receipt.Image)

	rawText, err := a.extractor.Extract(ctx, receipt.Image, mediaType, prompt)
	if err != nil {
		return a.fail(ctx, receiptID, model.AnalysisError, err.Error(), nil)
	}

	record, err := ParseResponse(rawText)
	if err != nil {
		return a.fail(ctx, receiptID, model.AnalysisError, err.Error(), nil)
	}

	if !isTruthy(record["is_receipt"]) {
		return a.fail(ctx, receiptID, model.AnalysisIgnored, "the model did not classify the image as a receipt", record)
	}

	return a.processTransaction(ctx, receiptID, ownerID, record, rawText)
}

func (a *Analyzer) processTransaction(ctx context.Context, receiptID, ownerID int64, record map[string]any, rawText string) *model.AnalysisResult {
	amount := toDecimal(record["total_amount"])
	categoryName := safeStr(record["category"])

	if amount == nil || categoryName == nil {
		return a.fail(ctx, receiptID, model.AnalysisIncomplete, "amount or category missing from model response", record)
	}

	txnDate := time.Now().UTC().Truncate(24 * time.Hour)
	if d := parseDate(record["transaction_date"]); d != nil {
		txnDate = *d
	}
	txnType := model.TransactionTypeExpense
	if t := safeStr(record["type"]); t != nil {
		txnType = model.TransactionType(*t)
	}
	description := a.opts.DefaultDescription
	if d := safeStr(record["description"]); d != nil {
		description = *d
	}
	currency := a.opts.DefaultCurrency
	if c := safeStr(record["currency"]); c != nil {
		currency = *c
	}

	account, err := a.store.GetOrCreatePrimaryAccount(ctx, ownerID)
	if err != nil {
		return a.fail(ctx, receiptID, model.AnalysisError, err.Error(), record)
	}

	categoryID, err := a.store.FindCategoryIDByName(ctx, ownerID, *categoryName)
	if err != nil {
		return a.fail(ctx, receiptID, model.AnalysisError, err.Error(), record)
	}
	if categoryID == nil {
		return a.fail(ctx, receiptID, model.AnalysisCategoryNotFound, fmt.Sprintf("category %q not found", *categoryName), record)
	}

	txn, err := a.store.InsertTransaction(ctx, &model.Transaction{
		AccountID:   account.ID,
		Amount:      *amount,
		CategoryID:  *categoryID,
		Description: description,
		Date:        txnDate,
		Type:        txnType,
		Currency:    currency,
		ReceiptID:   &receiptID,
	})
	if err != nil {
		return a.fail(ctx, receiptID, model.AnalysisError, err.Error(), record)
	}

	if err := a.updateIssuerInfo(ctx, receiptID, record); err != nil {
		return a.fail(ctx, receiptID, model.AnalysisError, err.Error(), record)
	}

	if err := a.store.SetReceiptStatus(ctx, receiptID, model.ReceiptStatusProcessed, &rawText, nil); err != nil {
		return a.fail(ctx, receiptID, model.AnalysisError, err.Error(), record)
	}

	return &model.AnalysisResult{
		ReceiptID:     receiptID,
		Status:        model.AnalysisProcessed,
		TransactionID: &txn.ID,
		Record:        record,
	}
}

// updateIssuerInfo persists the merchant identity plus best-effort
// coordinates. Geocoding failures yield nil coordinates, never an error.
func (a *Analyzer) updateIssuerInfo(ctx context.Context, receiptID int64, record map[string]any) error {
	fields := model.IssuerFields{
		Name:       safeStr(record["issuer_name"]),
		Street:     safeStr(record["issuer_street"]),
		City:       safeStr(record["issuer_city"]),
		PostalCode: safeStr(record["issuer_postal_code"]),
		Country:    safeStr(record["issuer_country"]),
	}

	address := gateway.JoinAddressParts(fields.Street, fields.PostalCode, fields.City, fields.Country)
	if address != "" {
		fields.Latitude, fields.Longitude = a.geocoder.Geocode(ctx, address)
	}

	return a.store.UpdateIssuerFields(ctx, receiptID, fields)
}

// fail records the terminal outcome on the receipt row and builds the
// result. Every non-processed status lands as receipt status "error" with
// the reason as the stored message.
func (a *Analyzer) fail(ctx context.Context, receiptID int64, status model.AnalysisStatus, message string, record map[string]any) *model.AnalysisResult {
	if err := a.store.SetReceiptStatus(ctx, receiptID, model.ReceiptStatusError, nil, &message); err != nil {
		logger.Warn("failed to record receipt error status", "receipt_id", receiptID, "status", status, "error", err)
	}

	return &model.AnalysisResult{
		ReceiptID: receiptID,
		Status:    status,
		Message:   message,
		Record:    record,
	}
}
