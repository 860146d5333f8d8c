package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/receiptgw/receipt-gateway/internal/imaging"
	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/receiptgw/receipt-gateway/internal/queue"
	"github.com/receiptgw/receipt-gateway/internal/repository"
	"github.com/receiptgw/receipt-gateway/pkg/logger"
)

// MaxImageSize caps the raw upload before normalization.
const MaxImageSize = 20 * 1024 * 1024

var (
	ErrEmptyImage       = fmt.Errorf("receipt image cannot be empty")
	ErrImageTooLarge    = fmt.Errorf("receipt image exceeds maximum size")
	ErrUnsupportedImage = fmt.Errorf("unsupported image format")
	ErrUserNotFound     = errors.New("user not found")
	ErrNotFound         = errors.New("receipt not found")
)

type ReceiptRepository interface {
	Create(ctx context.Context, rc *model.Receipt) (*model.Receipt, error)
	Get(ctx context.Context, id int64) (*model.Receipt, error)
	List(ctx context.Context, f model.ReceiptFilter) ([]*model.Receipt, int64, error)
	Delete(ctx context.Context, id int64) error
}

type UserRepository interface {
	Get(ctx context.Context, id int64) (*model.User, error)
}

type CategoryRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]*model.Category, error)
}

// AnalysisRunner runs one synchronous analysis. Satisfied by
// analyzer.Analyzer; the queue path bypasses it.
type AnalysisRunner interface {
	Analyze(ctx context.Context, receiptID int64, userID *int64) *model.AnalysisResult
}

type ReceiptService struct {
	receiptRepo  ReceiptRepository
	userRepo     UserRepository
	categoryRepo CategoryRepository
	queue        *queue.Queue
	runner       AnalysisRunner
}

func NewReceiptService(receiptRepo ReceiptRepository, userRepo UserRepository, categoryRepo CategoryRepository, q *queue.Queue, runner AnalysisRunner) *ReceiptService {
	return &ReceiptService{
		receiptRepo:  receiptRepo,
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		queue:        q,
		runner:       runner,
	}
}

// Upload validates and normalizes the image, stores the receipt as pending
// and enqueues an analysis job. The stored image is the normalized one, the
// original bytes are not retained.
func (s *ReceiptService) Upload(ctx context.Context, p model.ReceiptUploadRequest) (*model.Receipt, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(p.Image) == 0 {
		return nil, ErrEmptyImage
	}
	if len(p.Image) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	if _, err := s.userRepo.Get(ctx, p.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	normalized, mimeType, err := imaging.Normalize(p.Image)
	if err != nil {
		if errors.Is(err, imaging.ErrHEIFNotSupported) {
			return nil, ErrUnsupportedImage
		}
		return nil, fmt.Errorf("normalize image: %w", err)
	}

	receipt, err := s.receiptRepo.Create(ctx, &model.Receipt{
		UserID:   p.UserID,
		Image:    normalized,
		MimeType: mimeType,
		Status:   model.ReceiptStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("store receipt: %w", err)
	}

	if s.queue != nil {
		_, err = s.queue.PublishAnalysisJob(ctx, queue.AnalysisJob{
			ReceiptID: receipt.ID,
			UserID:    &p.UserID,
		})
		if err != nil {
			// the receipt is stored, analysis can be re-triggered manually
			logger.Error("failed to enqueue analysis job", "receipt_id", receipt.ID, "error", err)
		}
	}

	return receipt, nil
}

func (s *ReceiptService) Get(ctx context.Context, id int64) (*model.Receipt, error) {
	receipt, err := s.receiptRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return receipt, nil
}

func (s *ReceiptService) List(ctx context.Context, f model.ReceiptFilter) ([]*model.Receipt, int64, error) {
	return s.receiptRepo.List(ctx, f)
}

func (s *ReceiptService) Delete(ctx context.Context, id int64) error {
	if err := s.receiptRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Analyze runs the pipeline synchronously for one receipt, outside the
// queue. Used by the on-demand analyze endpoint.
func (s *ReceiptService) Analyze(ctx context.Context, receiptID int64, userID *int64) *model.AnalysisResult {
	return s.runner.Analyze(ctx, receiptID, userID)
}

func (s *ReceiptService) ListCategories(ctx context.Context, userID int64) ([]*model.Category, error) {
	return s.categoryRepo.ListByUser(ctx, userID)
}
