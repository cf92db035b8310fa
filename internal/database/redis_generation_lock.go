package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storypals-server/internal/interfaces"
	"storypals-server/internal/models"
)

// Compile-time check to ensure redisGenerationLock implements GenerationLocker
var _ interfaces.GenerationLocker = (*redisGenerationLock)(nil)

// lockTTL страхует от вечно висящего лока, если процесс умер посреди рана.
// Генерация занимает минуты, 30 минут - заведомо больше любого рана.
const lockTTL = 30 * time.Minute

type redisGenerationLock struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisGenerationLock creates a Redis-backed per-user generation lock.
func NewRedisGenerationLock(client *redis.Client, logger *zap.Logger) interfaces.GenerationLocker {
	return &redisGenerationLock{
		client: client,
		logger: logger.Named("RedisGenLock"),
	}
}

func lockKey(userID string) string {
	return fmt.Sprintf("generation_lock:%s", userID)
}

// Acquire takes the per-user lock with SETNX semantics.
func (l *redisGenerationLock) Acquire(ctx context.Context, userID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(userID), "1", lockTTL).Result()
	if err != nil {
		l.logger.Error("Failed to acquire generation lock", zap.Error(err), zap.String("userID", userID))
		return false, fmt.Errorf("%w: failed to acquire generation lock: %v", models.ErrStorageUnavailable, err)
	}
	if !ok {
		l.logger.Debug("Generation lock already held", zap.String("userID", userID))
	}
	return ok, nil
}

// Release frees the per-user lock.
func (l *redisGenerationLock) Release(ctx context.Context, userID string) error {
	if err := l.client.Del(ctx, lockKey(userID)).Err(); err != nil {
		l.logger.Error("Failed to release generation lock", zap.Error(err), zap.String("userID", userID))
		return fmt.Errorf("%w: failed to release generation lock: %v", models.ErrStorageUnavailable, err)
	}
	return nil
}
