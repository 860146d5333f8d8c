package analyzer

import (
	"errors"
	"fmt"
	"time"

	"github.com/receiptgw/receipt-gateway/pkg/logger"
	"github.com/receiptgw/receipt-gateway/pkg/redis"
)

var (
	// ErrLockHeld means another worker is analyzing the same receipt.
	ErrLockHeld = errors.New("analysis lock held by another worker")
)

// ReceiptLock serializes analysis per receipt id across workers. A receipt
// may legitimately be re-analyzed on demand, so there is no long-term
// processed marker, only a short advisory lock excluding concurrent
// duplicate runs.
type ReceiptLock struct {
	redis   redis.RedisAdapter
	ttl     time.Duration
	keyPref string
}

func NewReceiptLock(redisAdapter redis.RedisAdapter, ttl time.Duration) *ReceiptLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &ReceiptLock{
		redis:   redisAdapter,
		ttl:     ttl,
		keyPref: "analysis:lock:",
	}
}

func (l *ReceiptLock) key(receiptID int64) string {
	return fmt.Sprintf("%s%d", l.keyPref, receiptID)
}

// Acquire takes the per-receipt lock. ErrLockHeld signals a concurrent run.
func (l *ReceiptLock) Acquire(receiptID int64) error {
	value := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
	acquired, err := l.redis.SetNX(l.key(receiptID), value, l.ttl)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrLockHeld
	}
	return nil
}

func (l *ReceiptLock) Release(receiptID int64) {
	if err := l.redis.Del(l.key(receiptID)); err != nil {
		logger.Warn("failed to release analysis lock", "receipt_id", receiptID, "error", err)
	}
}
