package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gatepasshq/gatepass-backend/internal/escrow"
	"github.com/gatepasshq/gatepass-backend/pkg/clock"
	"github.com/gatepasshq/gatepass-backend/pkg/db"
	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/outbox"
	"gorm.io/gorm"
)

// EventInput carries the mutable fields shared by create and update.
type EventInput struct {
	Title       string
	Description string
	ImageURL    string
	Capacity    int64
	TicketCost  int64
	StartsAt    int64
	EndsAt      int64
}

// Service owns the event lifecycle.
type Service interface {
	Create(ctx context.Context, caller string, input EventInput) (*models.Event, error)
	Update(ctx context.Context, caller string, eventID int64, input EventInput) (*models.Event, error)
	Delete(ctx context.Context, caller string, admin bool, eventID int64) error
	List(ctx context.Context) ([]models.Event, error)
	ListByOwner(ctx context.Context, owner string) ([]models.Event, error)
	Get(ctx context.Context, eventID int64) (*models.Event, error)
}

type service struct {
	client *db.Client
	repo   Repository
	escrow escrow.Service
	outbox *outbox.Service
	clock  clock.Clock
}

// NewService wires the event registry with its collaborators.
func NewService(client *db.Client, repo Repository, escrowSvc escrow.Service, outboxSvc *outbox.Service, clk clock.Clock) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("event repository required")
	}
	if escrowSvc == nil {
		return nil, fmt.Errorf("escrow service required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if clk == nil {
		return nil, fmt.Errorf("clock required")
	}
	return &service{
		client: client,
		repo:   repo,
		escrow: escrowSvc,
		outbox: outboxSvc,
		clock:  clk,
	}, nil
}

func validateInput(input EventInput) error {
	switch {
	case strings.TrimSpace(input.Title) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "title must not be empty")
	case strings.TrimSpace(input.Description) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "description must not be empty")
	case strings.TrimSpace(input.ImageURL) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "image url must not be empty")
	case input.TicketCost <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "ticket cost must be positive")
	case input.Capacity <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "capacity must be positive")
	case input.StartsAt <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "start time must be positive")
	case input.EndsAt <= input.StartsAt:
		return pkgerrors.New(pkgerrors.CodeValidation, "end time must be after start time")
	}
	return nil
}

func (s *service) Create(ctx context.Context, caller string, input EventInput) (*models.Event, error) {
	if strings.TrimSpace(caller) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller account required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:       input.Title,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Owner:       caller,
		TicketCost:  input.TicketCost,
		Capacity:    input.Capacity,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		CreatedAt:   s.clock.Now(),
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating event")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEventCreated,
			AggregateType: enums.AggregateEvent,
			AggregateID:   event.ID,
			Actor:         &outbox.ActorRef{Account: caller},
			Data:          event,
			Version:       1,
			OccurredAt:    event.CreatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) Update(ctx context.Context, caller string, eventID int64, input EventInput) (*models.Event, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var updated *models.Event
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		event, err := repo.FindByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading event")
		}
		if event.Owner != caller {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can update an event")
		}
		if event.Deleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event already deleted")
		}
		if event.PaidOut {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event already paid out")
		}

		// Identity, owner, seatsSold and flags are never modified here.
		fields := map[string]any{
			"title":       input.Title,
			"description": input.Description,
			"image_url":   input.ImageURL,
			"ticket_cost": input.TicketCost,
			"capacity":    input.Capacity,
			"starts_at":   input.StartsAt,
			"ends_at":     input.EndsAt,
		}
		if err := repo.UpdateFields(ctx, eventID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating event")
		}

		event.Title = input.Title
		event.Description = input.Description
		event.ImageURL = input.ImageURL
		event.TicketCost = input.TicketCost
		event.Capacity = input.Capacity
		event.StartsAt = input.StartsAt
		event.EndsAt = input.EndsAt
		updated = event

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEventUpdated,
			AggregateType: enums.AggregateEvent,
			AggregateID:   event.ID,
			Actor:         &outbox.ActorRef{Account: caller},
			Data:          event,
			Version:       1,
			OccurredAt:    s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete cancels the event: every ticket is refunded inside the same
// transaction, then the refunded and deleted flags are set. A single failed
// transfer aborts the whole cancellation.
func (s *service) Delete(ctx context.Context, caller string, admin bool, eventID int64) error {
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		event, err := repo.FindByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading event")
		}
		if event.Owner != caller && !admin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner or the platform admin can delete an event")
		}
		if event.PaidOut {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event already paid out")
		}
		if event.Refunded {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event already refunded")
		}
		if event.Deleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event already deleted")
		}

		if err := s.escrow.RefundAll(ctx, tx, eventID); err != nil {
			return err
		}
		if err := repo.UpdateFields(ctx, eventID, map[string]any{"refunded": true}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flagging event refunded")
		}
		if err := repo.UpdateFields(ctx, eventID, map[string]any{"deleted": true}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flagging event deleted")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEventDeleted,
			AggregateType: enums.AggregateEvent,
			AggregateID:   eventID,
			Actor:         &outbox.ActorRef{Account: caller},
			Data:          map[string]any{"eventId": eventID},
			Version:       1,
			OccurredAt:    s.clock.Now(),
		})
	})
}

func (s *service) List(ctx context.Context) ([]models.Event, error) {
	return s.repo.List(ctx)
}

func (s *service) ListByOwner(ctx context.Context, owner string) ([]models.Event, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller account required")
	}
	return s.repo.ListByOwner(ctx, owner)
}

// Get returns the stored record. Unknown ids yield the zero-valued record
// with no error; callers treat id == 0 as absent.
func (s *service) Get(ctx context.Context, eventID int64) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.Event{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading event")
	}
	return event, nil
}
