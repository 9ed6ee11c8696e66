package payments

import (
	"context"

	"gorm.io/gorm"
)

// Rail abstracts the value-transfer system that moves funds between the
// escrow pool and external accounts. Transfer and Collect take the caller's
// transaction so a failed movement rolls back alongside ledger state.
type Rail interface {
	// Transfer pushes amount from the platform out to the given account.
	Transfer(ctx context.Context, tx *gorm.DB, to string, amount int64) error
	// Collect pulls amount from the given account into the platform.
	Collect(ctx context.Context, tx *gorm.DB, from string, amount int64) error
	// Balance reports the current balance of the given account.
	Balance(ctx context.Context, account string) (int64, error)
}
