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

// Compile-time check to ensure redisProcessedEvents implements ProcessedEventRepository
var _ interfaces.ProcessedEventRepository = (*redisProcessedEvents)(nil)

// processedEventTTL: Stripe ретраит вебхуки в пределах суток, дольше хранить
// отметки смысла нет.
const processedEventTTL = 24 * time.Hour

type redisProcessedEvents struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisProcessedEvents creates a Redis-backed ProcessedEventRepository.
func NewRedisProcessedEvents(client *redis.Client, logger *zap.Logger) interfaces.ProcessedEventRepository {
	return &redisProcessedEvents{
		client: client,
		logger: logger.Named("RedisProcessedEvents"),
	}
}

// MarkProcessed records the event ID, returning false on duplicate delivery.
func (r *redisProcessedEvents) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	key := fmt.Sprintf("stripe_event:%s", eventID)
	ok, err := r.client.SetNX(ctx, key, "1", processedEventTTL).Result()
	if err != nil {
		r.logger.Error("Failed to mark event processed", zap.Error(err), zap.String("eventID", eventID))
		return false, fmt.Errorf("%w: failed to mark event processed: %v", models.ErrStorageUnavailable, err)
	}
	if !ok {
		r.logger.Warn("Duplicate webhook event delivery", zap.String("eventID", eventID))
	}
	return ok, nil
}
