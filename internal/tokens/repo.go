package tokens

import (
	"context"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages attendance tokens and the shared token-id counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextID(ctx context.Context) (int64, error)
	Insert(ctx context.Context, token *models.AttendanceToken) error
	ListByOwner(ctx context.Context, owner string) ([]models.AttendanceToken, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a token repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// NextID bumps the shared counter and returns the allocated id. Runs inside
// the caller's transaction so ids roll back with the rest of the write set.
func (r *repository) NextID(ctx context.Context) (int64, error) {
	handle := r.db.WithContext(ctx)
	result := handle.Model(&models.Counter{}).
		Where("name = ?", models.CounterTokenID).
		Update("value", gorm.Expr("value + 1"))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		if err := handle.Create(&models.Counter{Name: models.CounterTokenID, Value: 1}).Error; err != nil {
			return 0, err
		}
		return 1, nil
	}

	var counter models.Counter
	if err := handle.Where("name = ?", models.CounterTokenID).First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}

func (r *repository) Insert(ctx context.Context, token *models.AttendanceToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *repository) ListByOwner(ctx context.Context, owner string) ([]models.AttendanceToken, error) {
	var tokens []models.AttendanceToken
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("id ASC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}
