package tickets

import (
	"context"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for ticket records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, tickets []models.Ticket) error
	ListByEvent(ctx context.Context, eventID int64) ([]models.Ticket, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ticket repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateBatch(ctx context.Context, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&tickets).Error
}

func (r *repository) ListByEvent(ctx context.Context, eventID int64) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("local_id ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}
