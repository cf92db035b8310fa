package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"storypals-server/internal/interfaces"
	"storypals-server/internal/models"
)

// Compile-time check to ensure pgCreditRepository implements CreditLedger
var _ interfaces.CreditLedger = (*pgCreditRepository)(nil)

type pgCreditRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgCreditRepository creates a new PostgreSQL-backed CreditLedger.
func NewPgCreditRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.CreditLedger {
	return &pgCreditRepository{
		db:     db,
		logger: logger.Named("PgCreditRepo"),
	}
}

// GetBalance returns the current balance, 0 when no row exists.
func (r *pgCreditRepository) GetBalance(ctx context.Context, userID string) (int, error) {
	query := `SELECT credits FROM user_credits WHERE user_id = $1`
	var credits int
	err := r.db.QueryRow(ctx, query, userID).Scan(&credits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		r.logger.Error("Failed to get credit balance", zap.Error(err), zap.String("userID", userID))
		return 0, fmt.Errorf("%w: failed to get credit balance: %v", models.ErrStorageUnavailable, err)
	}
	return credits, nil
}

// ReserveOne decrements the balance by 1 in a single guarded UPDATE.
// Строка блокируется на время UPDATE, поэтому два конкурентных вызова при
// балансе 1 не могут списать кредит оба: второй не найдёт строку с
// credits >= 1 и получит ErrInsufficientCredits.
func (r *pgCreditRepository) ReserveOne(ctx context.Context, userID string) (int, error) {
	query := `
		UPDATE user_credits
		SET credits = credits - 1, updated_at = now()
		WHERE user_id = $1 AND credits >= 1
		RETURNING credits`
	var remaining int
	err := r.db.QueryRow(ctx, query, userID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Либо записи нет, либо credits = 0 - в обоих случаях резервировать нечего.
			r.logger.Debug("Credit reservation rejected", zap.String("userID", userID))
			return 0, models.ErrInsufficientCredits
		}
		r.logger.Error("Failed to reserve credit", zap.Error(err), zap.String("userID", userID))
		return 0, fmt.Errorf("%w: failed to reserve credit: %v", models.ErrStorageUnavailable, err)
	}
	r.logger.Info("Credit reserved", zap.String("userID", userID), zap.Int("remaining", remaining))
	return remaining, nil
}

// Credit adds amount to the balance, creating the row when absent.
func (r *pgCreditRepository) Credit(ctx context.Context, userID string, amount int) (int, error) {
	if amount < 1 {
		return 0, fmt.Errorf("%w: credit amount must be >= 1, got %d", models.ErrValidation, amount)
	}
	query := `
		INSERT INTO user_credits (user_id, credits)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET credits = user_credits.credits + EXCLUDED.credits, updated_at = now()
		RETURNING credits`
	var balance int
	err := r.db.QueryRow(ctx, query, userID, amount).Scan(&balance)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			r.logger.Error("Failed to credit balance",
				zap.Error(err), zap.String("userID", userID), zap.String("pg_code", pgErr.Code))
		} else {
			r.logger.Error("Failed to credit balance", zap.Error(err), zap.String("userID", userID))
		}
		return 0, fmt.Errorf("%w: failed to credit balance: %v", models.ErrStorageUnavailable, err)
	}
	r.logger.Info("Credits added", zap.String("userID", userID), zap.Int("amount", amount), zap.Int("balance", balance))
	return balance, nil
}
