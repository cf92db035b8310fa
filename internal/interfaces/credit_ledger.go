package interfaces

import "context"

// CreditLedger tracks an integer credit balance per user.
// Implementations must make ReserveOne and Credit atomic for a single user:
// two simultaneous reservations must not both succeed when only one credit
// remains.
type CreditLedger interface {
	// GetBalance returns the current balance, 0 if no record exists.
	// Returns models.ErrStorageUnavailable if the backing store cannot be reached.
	GetBalance(ctx context.Context, userID string) (int, error)

	// ReserveOne atomically decrements the balance by 1 and returns the new
	// balance. Returns models.ErrInsufficientCredits (state unchanged) when
	// the balance is 0 or no record exists.
	ReserveOne(ctx context.Context, userID string) (int, error)

	// Credit atomically adds amount (>= 1) to the balance, creating the row
	// if absent. Returns the new balance.
	Credit(ctx context.Context, userID string, amount int) (int, error)
}
