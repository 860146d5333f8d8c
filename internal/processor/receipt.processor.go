package processor

import (
	"context"
	"errors"
	"time"

	"github.com/receiptgw/receipt-gateway/internal/analyzer"
	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/receiptgw/receipt-gateway/internal/queue"
	"github.com/receiptgw/receipt-gateway/pkg/logger"
	"github.com/receiptgw/receipt-gateway/pkg/prom"
)

// ReceiptAnalysisProcessor runs the analyzer for each consumed job. A redis
// lock keeps two workers from analyzing the same receipt concurrently.
type ReceiptAnalysisProcessor struct {
	analyzer *analyzer.Analyzer
	lock     *analyzer.ReceiptLock
}

func NewReceiptAnalysisProcessor(a *analyzer.Analyzer, lock *analyzer.ReceiptLock) *ReceiptAnalysisProcessor {
	return &ReceiptAnalysisProcessor{
		analyzer: a,
		lock:     lock,
	}
}

func (p *ReceiptAnalysisProcessor) GetType() string {
	return "receipt_analysis"
}

func (p *ReceiptAnalysisProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	job, err := queue.ParseAnalysisJob(queueMessage)
	if err != nil {
		logger.Error("Failed to decode analysis job", "error", err)
		return err // retries exhaust into the DLQ
	}

	if err := p.lock.Acquire(job.ReceiptID); err != nil {
		if errors.Is(err, analyzer.ErrLockHeld) {
			logger.Info("Receipt is being analyzed by another worker, will retry", "receipt_id", job.ReceiptID)
			return err
		}
		logger.Error("Failed to acquire analysis lock", "receipt_id", job.ReceiptID, "error", err)
		return err
	}
	defer p.lock.Release(job.ReceiptID)

	logger.Info("Analyzing receipt", "receipt_id", job.ReceiptID, "attempts", queueMessage.Attempts)

	start := time.Now()
	result := p.analyzer.Analyze(ctx, job.ReceiptID, job.UserID)
	prom.AddReceiptAnalysisDuration(time.Since(start).Seconds(), string(result.Status))

	if result.NotFound {
		// the receipt was deleted between enqueue and pickup
		logger.Warn("Receipt no longer exists, dropping job", "receipt_id", job.ReceiptID)
		return nil
	}

	switch result.Status {
	case model.AnalysisProcessed:
		logger.Info("Receipt analyzed",
			"receipt_id", job.ReceiptID,
			"transaction_id", result.TransactionID,
			"duration_ms", time.Since(start).Milliseconds())
	default:
		// every status is terminal and already persisted on the receipt,
		// retrying would repeat the same outcome
		logger.Warn("Receipt analysis did not produce a transaction",
			"receipt_id", job.ReceiptID,
			"status", result.Status,
			"message", result.Message)
	}

	return nil
}
