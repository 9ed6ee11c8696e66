package payouts

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gatepasshq/gatepass-backend/internal/escrow"
	"github.com/gatepasshq/gatepass-backend/internal/events"
	"github.com/gatepasshq/gatepass-backend/internal/tokens"
	"github.com/gatepasshq/gatepass-backend/pkg/clock"
	"github.com/gatepasshq/gatepass-backend/pkg/config"
	"github.com/gatepasshq/gatepass-backend/pkg/db"
	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/outbox"
	"github.com/gatepasshq/gatepass-backend/pkg/payments"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestPayoutSettlesFeeSplit(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	eventID := h.seedSoldOutEvent(t, 100, 1)

	h.clock.Set(3_000) // past endsAt

	result, err := h.svc.Payout(ctx, "acct_owner", false, eventID)
	if err != nil {
		t.Fatalf("payout: %v", err)
	}
	if result.Revenue != 100 || result.Fee != 5 || result.OwnerAmount != 95 {
		t.Fatalf("unexpected settlement: %+v", result)
	}

	ownerBalance, err := h.rail.Balance(ctx, "acct_owner")
	if err != nil {
		t.Fatalf("owner balance: %v", err)
	}
	if ownerBalance != 95 {
		t.Fatalf("expected owner to receive 95, got %d", ownerBalance)
	}
	adminBalance, err := h.rail.Balance(ctx, "acct_platform")
	if err != nil {
		t.Fatalf("admin balance: %v", err)
	}
	if adminBalance != 5 {
		t.Fatalf("expected admin to receive 5, got %d", adminBalance)
	}

	escrowBalance, err := h.escrow.Balance(ctx)
	if err != nil {
		t.Fatalf("escrow balance: %v", err)
	}
	if escrowBalance != 0 {
		t.Fatalf("expected drained escrow, got %d", escrowBalance)
	}

	var event models.Event
	if err := h.db.First(&event, eventID).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if !event.PaidOut || !event.Minted {
		t.Fatalf("expected paid_out and minted flags, got %+v", event)
	}

	var ticket models.Ticket
	if err := h.db.Where("event_id = ?", eventID).First(&ticket).Error; err != nil {
		t.Fatalf("reload ticket: %v", err)
	}
	if !ticket.Minted {
		t.Fatal("expected ticket minted")
	}
	var token models.AttendanceToken
	if err := h.db.Where("event_id = ?", eventID).First(&token).Error; err != nil {
		t.Fatalf("load token: %v", err)
	}
	if token.ID == 0 || token.Owner != "acct_buyer" {
		t.Fatalf("unexpected token: %+v", token)
	}
}

func TestPayoutFeeSplitLargeRevenue(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	cost := int64(math.MaxInt64 / 2)
	eventID := h.seedSoldOutEvent(t, cost, 1)
	h.clock.Set(3_000)

	result, err := h.svc.Payout(ctx, "acct_owner", false, eventID)
	if err != nil {
		t.Fatalf("payout: %v", err)
	}
	// 5 pct truncating; revenue*5 would wrap int64, the split must not.
	wantFee := cost / 20
	if result.Revenue != cost || result.Fee != wantFee || result.OwnerAmount != cost-wantFee {
		t.Fatalf("unexpected settlement: %+v", result)
	}

	ownerBalance, err := h.rail.Balance(ctx, "acct_owner")
	if err != nil {
		t.Fatalf("owner balance: %v", err)
	}
	if ownerBalance != cost-wantFee {
		t.Fatalf("expected owner to receive %d, got %d", cost-wantFee, ownerBalance)
	}
}

func TestPayoutRevenueOverflowAborts(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	event := models.Event{
		Title:       "show",
		Description: "d",
		ImageURL:    "u",
		Owner:       "acct_owner",
		TicketCost:  math.MaxInt64/2 + 1,
		Capacity:    2,
		SeatsSold:   2,
		StartsAt:    1_000,
		EndsAt:      2_000,
		CreatedAt:   1_000,
	}
	if err := h.db.Create(&event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	h.clock.Set(3_000)

	_, err := h.svc.Payout(ctx, "acct_owner", false, event.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error for unrepresentable revenue, got %v", err)
	}
	h.assertUnsettled(t, event.ID, 0)
}

func TestPayoutSecondCallFailsWithoutSideEffects(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	eventID := h.seedSoldOutEvent(t, 100, 1)
	h.clock.Set(3_000)

	if _, err := h.svc.Payout(ctx, "acct_owner", false, eventID); err != nil {
		t.Fatalf("first payout: %v", err)
	}
	ownerAfterFirst, err := h.rail.Balance(ctx, "acct_owner")
	if err != nil {
		t.Fatalf("owner balance: %v", err)
	}

	_, err = h.svc.Payout(ctx, "acct_owner", false, eventID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on second payout, got %v", err)
	}

	ownerAfterSecond, err := h.rail.Balance(ctx, "acct_owner")
	if err != nil {
		t.Fatalf("owner balance: %v", err)
	}
	if ownerAfterSecond != ownerAfterFirst {
		t.Fatalf("second payout must have no side effect: %d != %d", ownerAfterSecond, ownerAfterFirst)
	}
}

func TestPayoutGuards(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	eventID := h.seedSoldOutEvent(t, 100, 1)

	if _, err := h.svc.Payout(ctx, "acct_owner", false, 9999); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// clock still at 1_500, inside the event window
	if _, err := h.svc.Payout(ctx, "acct_owner", false, eventID); !pkgerrors.HasCode(err, pkgerrors.CodeEventStillOngoing) {
		t.Fatalf("expected still ongoing, got %v", err)
	}

	h.clock.Set(3_000)
	if _, err := h.svc.Payout(ctx, "acct_stranger", false, eventID); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	refunded := h.seedSoldOutEvent(t, 100, 1)
	if err := h.db.Model(&models.Event{}).Where("id = ?", refunded).Update("refunded", true).Error; err != nil {
		t.Fatalf("flag refunded: %v", err)
	}
	if _, err := h.svc.Payout(ctx, "acct_owner", false, refunded); !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict for refunded event, got %v", err)
	}
}

func TestPayoutAdminCanSettle(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	eventID := h.seedSoldOutEvent(t, 100, 1)
	h.clock.Set(3_000)

	if _, err := h.svc.Payout(ctx, "acct_platform", true, eventID); err != nil {
		t.Fatalf("admin payout: %v", err)
	}
}

func TestPayoutAbortsWhenMintFails(t *testing.T) {
	t.Parallel()

	h := newHarnessWith(t, &failingTokens{}, nil)
	ctx := context.Background()
	eventID := h.seedSoldOutEvent(t, 100, 1)
	h.clock.Set(3_000)

	if _, err := h.svc.Payout(ctx, "acct_owner", false, eventID); err == nil {
		t.Fatal("expected payout to abort on mint failure")
	}

	h.assertUnsettled(t, eventID, 100)
}

func TestPayoutAbortsWhenTransferFails(t *testing.T) {
	t.Parallel()

	rail := &failingRail{failAccount: "acct_owner"}
	h := newHarnessWith(t, nil, rail)
	ctx := context.Background()
	eventID := h.seedSoldOutEvent(t, 100, 1)
	h.clock.Set(3_000)

	if _, err := h.svc.Payout(ctx, "acct_owner", false, eventID); err == nil {
		t.Fatal("expected payout to abort on transfer failure")
	}

	h.assertUnsettled(t, eventID, 100)
}

type failingTokens struct{}

func (f *failingTokens) Mint(ctx context.Context, tx *gorm.DB, input tokens.MintInput) (int64, error) {
	return 0, errors.New("mint failed")
}

func (f *failingTokens) MintAll(ctx context.Context, tx *gorm.DB, eventID int64) error {
	return errors.New("mint failed")
}

func (f *failingTokens) ListByOwner(ctx context.Context, owner string) ([]models.AttendanceToken, error) {
	return nil, nil
}

type failingRail struct {
	failAccount string
}

func (f *failingRail) Transfer(ctx context.Context, tx *gorm.DB, to string, amount int64) error {
	if to == f.failAccount {
		return pkgerrors.New(pkgerrors.CodeTransferFailed, "rail rejected transfer")
	}
	return nil
}

func (f *failingRail) Collect(ctx context.Context, tx *gorm.DB, from string, amount int64) error {
	return nil
}

func (f *failingRail) Balance(ctx context.Context, account string) (int64, error) {
	return 0, nil
}

type harness struct {
	db     *gorm.DB
	svc    Service
	escrow escrow.Service
	rail   payments.Rail
	clock  *clock.Manual
}

// seedSoldOutEvent creates an event with every seat sold to acct_buyer and
// the matching escrow balance in place.
func (h *harness) seedSoldOutEvent(t *testing.T, ticketCost, capacity int64) int64 {
	t.Helper()
	event := models.Event{
		Title:       "show",
		Description: "d",
		ImageURL:    "u",
		Owner:       "acct_owner",
		TicketCost:  ticketCost,
		Capacity:    capacity,
		SeatsSold:   capacity,
		StartsAt:    1_000,
		EndsAt:      2_000,
		CreatedAt:   1_000,
	}
	if err := h.db.Create(&event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	for i := int64(0); i < capacity; i++ {
		ticket := models.Ticket{EventID: event.ID, LocalID: i, Owner: "acct_buyer", CostPaid: ticketCost, PurchasedAt: 1_100}
		if err := h.db.Create(&ticket).Error; err != nil {
			t.Fatalf("seed ticket: %v", err)
		}
	}
	if err := h.db.Model(&models.EscrowAccount{}).Where("id = ?", models.EscrowSingletonID).
		Update("balance", gorm.Expr("balance + ?", ticketCost*capacity)).Error; err != nil {
		t.Fatalf("seed escrow: %v", err)
	}
	return event.ID
}

func (h *harness) assertUnsettled(t *testing.T, eventID, escrowed int64) {
	t.Helper()
	var event models.Event
	if err := h.db.First(&event, eventID).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if event.PaidOut || event.Minted {
		t.Fatalf("expected flags untouched after abort: %+v", event)
	}
	balance, err := h.escrow.Balance(context.Background())
	if err != nil {
		t.Fatalf("escrow balance: %v", err)
	}
	if balance != escrowed {
		t.Fatalf("expected untouched escrow %d, got %d", escrowed, balance)
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil, nil)
}

func newHarnessWith(t *testing.T, tokenSvc tokens.Service, rail payments.Rail) *harness {
	t.Helper()
	conn := newTestDB(t)
	client := db.NewFromGorm(conn)
	clk := clock.NewManual(1_500)

	if rail == nil {
		var err error
		rail, err = payments.NewAccountLedger(conn)
		if err != nil {
			t.Fatalf("new rail: %v", err)
		}
	}
	escrowSvc, err := escrow.NewService(escrow.NewRepository(conn), rail)
	if err != nil {
		t.Fatalf("new escrow service: %v", err)
	}
	if tokenSvc == nil {
		tokenSvc, err = tokens.NewService(tokens.NewRepository(conn), clk)
		if err != nil {
			t.Fatalf("new token service: %v", err)
		}
	}
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)
	svc, err := NewService(client, events.NewRepository(conn), tokenSvc, escrowSvc, rail, outboxSvc, clk, config.LedgerConfig{
		ServicePct:   5,
		AdminAccount: "acct_platform",
	})
	if err != nil {
		t.Fatalf("new payout service: %v", err)
	}
	return &harness{db: conn, svc: svc, escrow: escrowSvc, rail: rail, clock: clk}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:payouts_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Event{}, &models.Ticket{}, &models.EscrowAccount{},
		&models.LedgerAccount{}, &models.AttendanceToken{}, &models.Counter{},
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := conn.Create(&models.EscrowAccount{ID: models.EscrowSingletonID}).Error; err != nil {
		t.Fatalf("seed escrow row: %v", err)
	}
	if err := conn.Create(&models.Counter{Name: models.CounterTokenID, Value: 0}).Error; err != nil {
		t.Fatalf("seed counter: %v", err)
	}
	return conn
}
