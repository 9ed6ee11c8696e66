package tickets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gatepasshq/gatepass-backend/internal/escrow"
	"github.com/gatepasshq/gatepass-backend/internal/events"
	"github.com/gatepasshq/gatepass-backend/pkg/clock"
	"github.com/gatepasshq/gatepass-backend/pkg/db"
	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/outbox"
	"github.com/gatepasshq/gatepass-backend/pkg/payments"
	"gorm.io/gorm"
)

// Service owns ticket issuance against an event.
type Service interface {
	Buy(ctx context.Context, caller string, eventID, quantity, payment int64) ([]models.Ticket, error)
	ListByEvent(ctx context.Context, eventID int64) ([]models.Ticket, error)
}

type service struct {
	client    *db.Client
	repo      Repository
	eventRepo events.Repository
	escrow    escrow.Service
	rail      payments.Rail
	outbox    *outbox.Service
	clock     clock.Clock
}

// NewService wires the ticket ledger with its collaborators.
func NewService(client *db.Client, repo Repository, eventRepo events.Repository, escrowSvc escrow.Service, rail payments.Rail, outboxSvc *outbox.Service, clk clock.Clock) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("ticket repository required")
	}
	if eventRepo == nil {
		return nil, fmt.Errorf("event repository required")
	}
	if escrowSvc == nil {
		return nil, fmt.Errorf("escrow service required")
	}
	if rail == nil {
		return nil, fmt.Errorf("payment rail required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if clk == nil {
		return nil, fmt.Errorf("clock required")
	}
	return &service{
		client:    client,
		repo:      repo,
		eventRepo: eventRepo,
		escrow:    escrowSvc,
		rail:      rail,
		outbox:    outboxSvc,
		clock:     clk,
	}, nil
}

// Buy sells quantity seats against the event. The full payment is collected
// and escrowed, overpayment included; each ticket captures the ticket cost
// in force at this instant.
func (s *service) Buy(ctx context.Context, caller string, eventID, quantity, payment int64) ([]models.Ticket, error) {
	if strings.TrimSpace(caller) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller account required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if payment < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment must not be negative")
	}

	var sold []models.Ticket
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		event, err := s.eventRepo.WithTx(tx).FindByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading event")
		}
		if event.Deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		// Compare against remaining seats rather than summing, so an
		// oversized quantity cannot wrap the arithmetic negative.
		if quantity > event.Capacity-event.SeatsSold {
			return pkgerrors.New(pkgerrors.CodeCapacityExceeded, "not enough seats left")
		}
		if event.TicketCost > 0 && quantity > math.MaxInt64/event.TicketCost {
			return pkgerrors.New(pkgerrors.CodeInsufficientPayment, "payment below ticket cost")
		}
		if payment < event.TicketCost*quantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientPayment, "payment below ticket cost")
		}

		now := s.clock.Now()
		batch := make([]models.Ticket, 0, quantity)
		for i := int64(0); i < quantity; i++ {
			batch = append(batch, models.Ticket{
				EventID:     eventID,
				LocalID:     event.SeatsSold + i,
				Owner:       caller,
				CostPaid:    event.TicketCost,
				PurchasedAt: now,
			})
		}
		if err := s.repo.WithTx(tx).CreateBatch(ctx, batch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating tickets")
		}
		if err := s.eventRepo.WithTx(tx).UpdateFields(ctx, eventID, map[string]any{
			"seats_sold": gorm.Expr("seats_sold + ?", quantity),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating seats sold")
		}
		if err := s.escrow.Credit(ctx, tx, payment); err != nil {
			return err
		}
		if err := s.rail.Collect(ctx, tx, caller, payment); err != nil {
			return err
		}

		sold = batch
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTicketsPurchased,
			AggregateType: enums.AggregateTicket,
			AggregateID:   eventID,
			Actor:         &outbox.ActorRef{Account: caller},
			Data: map[string]any{
				"eventId":  eventID,
				"quantity": quantity,
				"payment":  payment,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return sold, nil
}

func (s *service) ListByEvent(ctx context.Context, eventID int64) ([]models.Ticket, error) {
	return s.repo.ListByEvent(ctx, eventID)
}
