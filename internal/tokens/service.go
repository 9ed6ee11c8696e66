package tokens

import (
	"context"
	"fmt"
	"strings"

	"github.com/gatepasshq/gatepass-backend/pkg/clock"
	"github.com/gatepasshq/gatepass-backend/pkg/db"
	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"gorm.io/gorm"
)

// MintInput carries the data recorded with a freshly minted token.
type MintInput struct {
	Owner         string
	EventID       int64
	TicketLocalID int64
}

// Service issues unique, strictly increasing attendance tokens.
type Service interface {
	Mint(ctx context.Context, tx *gorm.DB, input MintInput) (int64, error)
	MintAll(ctx context.Context, tx *gorm.DB, eventID int64) error
	ListByOwner(ctx context.Context, owner string) ([]models.AttendanceToken, error)
}

type service struct {
	repo  Repository
	clock clock.Clock
}

// NewService wires a token service with the provided repository and clock.
func NewService(repo Repository, clk clock.Clock) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("token repository required")
	}
	if clk == nil {
		return nil, fmt.Errorf("clock required")
	}
	return &service{repo: repo, clock: clk}, nil
}

// Mint allocates the next global token id and records it for the owner.
func (s *service) Mint(ctx context.Context, tx *gorm.DB, input MintInput) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("transaction required")
	}
	if strings.TrimSpace(input.Owner) == "" {
		return 0, fmt.Errorf("owner is required")
	}

	repo := s.repo.WithTx(tx)
	id, err := repo.NextID(ctx)
	if err != nil {
		return 0, err
	}
	token := models.AttendanceToken{
		ID:            id,
		EventID:       input.EventID,
		TicketLocalID: input.TicketLocalID,
		Owner:         input.Owner,
		MintedAt:      s.clock.Now(),
	}
	if err := repo.Insert(ctx, &token); err != nil {
		if db.IsUniqueViolation(err, "ux_attendance_tokens_ticket") {
			return 0, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "ticket already minted")
		}
		return 0, err
	}
	return id, nil
}

// MintAll mints a token for every unminted ticket of the event, then flags
// the event itself as minted. Runs inside the caller's transaction.
func (s *service) MintAll(ctx context.Context, tx *gorm.DB, eventID int64) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}

	var tickets []models.Ticket
	if err := tx.WithContext(ctx).
		Where("event_id = ? AND minted = ?", eventID, false).
		Order("local_id ASC").
		Find(&tickets).Error; err != nil {
		return err
	}

	for i := range tickets {
		ticket := &tickets[i]
		if err := tx.WithContext(ctx).
			Model(&models.Ticket{}).
			Where("event_id = ? AND local_id = ?", ticket.EventID, ticket.LocalID).
			Update("minted", true).Error; err != nil {
			return err
		}
		if _, err := s.Mint(ctx, tx, MintInput{
			Owner:         ticket.Owner,
			EventID:       ticket.EventID,
			TicketLocalID: ticket.LocalID,
		}); err != nil {
			return err
		}
	}

	return tx.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", eventID).
		Update("minted", true).Error
}

func (s *service) ListByOwner(ctx context.Context, owner string) ([]models.AttendanceToken, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("owner is required")
	}
	return s.repo.ListByOwner(ctx, owner)
}
