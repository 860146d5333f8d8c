package services

import (
	"context"
	"time"

	"github.com/receiptgw/receipt-gateway/pkg/pg"
	"github.com/receiptgw/receipt-gateway/pkg/redis"
)

// HealthService reports whether the gateway's backing stores respond.
type HealthService struct {
	db    *pg.DB
	redis redis.RedisAdapter
}

func NewHealthService(db *pg.DB, redisAdapter redis.RedisAdapter) *HealthService {
	return &HealthService{
		db:    db,
		redis: redisAdapter,
	}
}

func (s *HealthService) Get() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.Read(ctx).WithContext(ctx).Exec("SELECT 1").Error; err != nil {
			return err
		}
	}
	if s.redis != nil {
		if err := s.redis.Client().Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
