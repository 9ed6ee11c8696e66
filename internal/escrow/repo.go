package escrow

import (
	"context"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages the singleton escrow row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Balance(ctx context.Context) (int64, error)
	Add(ctx context.Context, delta int64) error
	Subtract(ctx context.Context, delta int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an escrow repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Balance(ctx context.Context) (int64, error) {
	var account models.EscrowAccount
	err := r.db.WithContext(ctx).
		Where("id = ?", models.EscrowSingletonID).
		First(&account).Error
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (r *repository) Add(ctx context.Context, delta int64) error {
	return r.db.WithContext(ctx).
		Model(&models.EscrowAccount{}).
		Where("id = ?", models.EscrowSingletonID).
		Update("balance", gorm.Expr("balance + ?", delta)).Error
}

// Subtract decrements the pool. The guard keeps the balance from going
// negative; callers treat a zero row-count as a consistency failure.
func (r *repository) Subtract(ctx context.Context, delta int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.EscrowAccount{}).
		Where("id = ? AND balance >= ?", models.EscrowSingletonID, delta).
		Update("balance", gorm.Expr("balance - ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
