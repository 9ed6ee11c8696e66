package payouts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gatepasshq/gatepass-backend/internal/escrow"
	"github.com/gatepasshq/gatepass-backend/internal/events"
	"github.com/gatepasshq/gatepass-backend/internal/tokens"
	"github.com/gatepasshq/gatepass-backend/pkg/clock"
	"github.com/gatepasshq/gatepass-backend/pkg/config"
	"github.com/gatepasshq/gatepass-backend/pkg/db"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/outbox"
	"github.com/gatepasshq/gatepass-backend/pkg/payments"
	"gorm.io/gorm"
)

// Result reports the settled amounts of a payout.
type Result struct {
	EventID     int64 `json:"eventId"`
	Revenue     int64 `json:"revenue"`
	Fee         int64 `json:"fee"`
	OwnerAmount int64 `json:"ownerAmount"`
}

// Service owns settlement at event end: minting, fee split and transfer.
type Service interface {
	Payout(ctx context.Context, caller string, admin bool, eventID int64) (*Result, error)
}

type service struct {
	client    *db.Client
	eventRepo events.Repository
	tokens    tokens.Service
	escrow    escrow.Service
	rail      payments.Rail
	outbox    *outbox.Service
	clock     clock.Clock
	ledgerCfg config.LedgerConfig
}

// NewService wires the payout processor with its collaborators.
func NewService(client *db.Client, eventRepo events.Repository, tokenSvc tokens.Service, escrowSvc escrow.Service, rail payments.Rail, outboxSvc *outbox.Service, clk clock.Clock, ledgerCfg config.LedgerConfig) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if eventRepo == nil {
		return nil, fmt.Errorf("event repository required")
	}
	if tokenSvc == nil {
		return nil, fmt.Errorf("token service required")
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
	if strings.TrimSpace(ledgerCfg.AdminAccount) == "" {
		return nil, fmt.Errorf("platform admin account required")
	}
	if ledgerCfg.ServicePct < 0 || ledgerCfg.ServicePct > 100 {
		return nil, fmt.Errorf("service pct out of range")
	}
	return &service{
		client:    client,
		eventRepo: eventRepo,
		tokens:    tokenSvc,
		escrow:    escrowSvc,
		rail:      rail,
		outbox:    outboxSvc,
		clock:     clk,
		ledgerCfg: ledgerCfg,
	}, nil
}

// Payout settles a finished event. Tokens are minted first; revenue is the
// current ticket cost times seats sold; the fee uses truncating division.
// The paid_out flag is set before any rail transfer, and a mint or transfer
// failure rolls the whole settlement back.
func (s *service) Payout(ctx context.Context, caller string, admin bool, eventID int64) (*Result, error) {
	if strings.TrimSpace(caller) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller account required")
	}

	var result *Result
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.eventRepo.WithTx(tx)
		event, err := repo.FindByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading event")
		}
		if event.PaidOut {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event already paid out")
		}
		if event.Refunded {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event already refunded")
		}
		if s.clock.Now() <= event.EndsAt {
			return pkgerrors.New(pkgerrors.CodeEventStillOngoing, "event has not ended yet")
		}
		if event.Owner != caller && !admin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner or the platform admin can pay out an event")
		}

		if err := s.tokens.MintAll(ctx, tx, eventID); err != nil {
			return err
		}

		if event.SeatsSold > 0 && event.TicketCost > math.MaxInt64/event.SeatsSold {
			return pkgerrors.New(pkgerrors.CodeInternal, "event revenue exceeds ledger range")
		}
		revenue := event.TicketCost * event.SeatsSold
		// fee = floor(revenue*pct/100) without the intermediate product,
		// which can wrap for large revenues.
		fee := revenue/100*s.ledgerCfg.ServicePct + revenue%100*s.ledgerCfg.ServicePct/100

		if err := repo.UpdateFields(ctx, eventID, map[string]any{"paid_out": true}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flagging event paid out")
		}
		if err := s.escrow.Debit(ctx, tx, revenue); err != nil {
			return err
		}
		if err := s.rail.Transfer(ctx, tx, event.Owner, revenue-fee); err != nil {
			return err
		}
		if err := s.rail.Transfer(ctx, tx, s.ledgerCfg.AdminAccount, fee); err != nil {
			return err
		}

		result = &Result{
			EventID:     eventID,
			Revenue:     revenue,
			Fee:         fee,
			OwnerAmount: revenue - fee,
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEventPaidOut,
			AggregateType: enums.AggregateEvent,
			AggregateID:   eventID,
			Actor:         &outbox.ActorRef{Account: caller},
			Data:          result,
			Version:       1,
			OccurredAt:    s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
