package escrow

import (
	"context"
	"fmt"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/payments"
	"gorm.io/gorm"
)

// Service owns the pooled escrow balance and the refund flow. Credit, Debit
// and RefundAll must run inside the caller's transaction; Balance reads the
// committed state.
type Service interface {
	Balance(ctx context.Context) (int64, error)
	Credit(ctx context.Context, tx *gorm.DB, amount int64) error
	Debit(ctx context.Context, tx *gorm.DB, amount int64) error
	RefundAll(ctx context.Context, tx *gorm.DB, eventID int64) error
}

type service struct {
	repo Repository
	rail payments.Rail
}

// NewService wires an escrow service with the provided repository and rail.
func NewService(repo Repository, rail payments.Rail) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("escrow repository required")
	}
	if rail == nil {
		return nil, fmt.Errorf("payment rail required")
	}
	return &service{repo: repo, rail: rail}, nil
}

func (s *service) Balance(ctx context.Context) (int64, error) {
	return s.repo.Balance(ctx)
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, amount int64) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if amount < 0 {
		return fmt.Errorf("credit amount must not be negative")
	}
	return s.repo.WithTx(tx).Add(ctx, amount)
}

func (s *service) Debit(ctx context.Context, tx *gorm.DB, amount int64) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if amount < 0 {
		return fmt.Errorf("debit amount must not be negative")
	}
	if err := s.repo.WithTx(tx).Subtract(ctx, amount); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "escrow balance below debit amount")
	}
	return nil
}

// RefundAll refunds every ticket of the event inside the caller's
// transaction. Each ticket is flagged refunded before its rail transfer is
// attempted; a transfer failure rolls back the whole ticket set.
func (s *service) RefundAll(ctx context.Context, tx *gorm.DB, eventID int64) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}

	var tickets []models.Ticket
	if err := tx.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("local_id ASC").
		Find(&tickets).Error; err != nil {
		return err
	}

	repo := s.repo.WithTx(tx)
	for i := range tickets {
		ticket := &tickets[i]
		if ticket.Refunded {
			continue
		}
		if err := tx.WithContext(ctx).
			Model(&models.Ticket{}).
			Where("event_id = ? AND local_id = ?", ticket.EventID, ticket.LocalID).
			Update("refunded", true).Error; err != nil {
			return err
		}
		if err := s.rail.Transfer(ctx, tx, ticket.Owner, ticket.CostPaid); err != nil {
			return err
		}
		if err := repo.Subtract(ctx, ticket.CostPaid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "escrow balance below refund amount")
		}
	}
	return nil
}
