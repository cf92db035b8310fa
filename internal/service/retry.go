package service

import (
	"context"
	"errors"
	"time"

	"storypals-server/internal/models"
)

// retryDelay - пауза перед единственным повтором операции с хранилищем.
const retryDelay = 200 * time.Millisecond

// retryOnce повторяет операцию один раз при транзиентной ошибке хранилища.
// Бизнес-ошибки (недостаток кредитов и т.п.) не повторяются.
func retryOnce[T any](ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	result, err := op(ctx)
	if err == nil || !errors.Is(err, models.ErrStorageUnavailable) {
		return result, err
	}

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-time.After(retryDelay):
	}

	return op(ctx)
}
