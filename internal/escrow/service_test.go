package escrow

import (
	"context"
	"errors"
	"testing"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	"github.com/gatepasshq/gatepass-backend/pkg/payments"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCreditAndDebit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Credit(ctx, tx, 120); err != nil {
			return err
		}
		return svc.Debit(ctx, tx, 20)
	})
	if err != nil {
		t.Fatalf("credit/debit: %v", err)
	}

	balance, err := svc.Balance(ctx)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 100 {
		t.Fatalf("expected balance 100, got %d", balance)
	}
}

func TestDebitBelowBalanceFails(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Credit(ctx, tx, 10); err != nil {
			return err
		}
		return svc.Debit(ctx, tx, 11)
	})
	if err == nil {
		t.Fatal("expected debit to fail")
	}

	balance, err := svc.Balance(ctx)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected rolled back balance 0, got %d", balance)
	}
}

func TestRefundAllReturnsCapturedCosts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	rail, err := payments.NewAccountLedger(db)
	if err != nil {
		t.Fatalf("new rail: %v", err)
	}
	svc, err := NewService(NewRepository(db), rail)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	seedTickets(t, db, []models.Ticket{
		{EventID: 1, LocalID: 0, Owner: "acct_a", CostPaid: 10},
		{EventID: 1, LocalID: 1, Owner: "acct_b", CostPaid: 12},
		{EventID: 2, LocalID: 0, Owner: "acct_c", CostPaid: 99},
	})
	mustExec(t, db, "UPDATE escrow SET balance = 121 WHERE id = 1")

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.RefundAll(ctx, tx, 1)
	})
	if err != nil {
		t.Fatalf("refund all: %v", err)
	}

	var tickets []models.Ticket
	if err := db.Where("event_id = ?", 1).Order("local_id ASC").Find(&tickets).Error; err != nil {
		t.Fatalf("load tickets: %v", err)
	}
	for _, ticket := range tickets {
		if !ticket.Refunded {
			t.Fatalf("ticket %d not refunded", ticket.LocalID)
		}
	}

	var other models.Ticket
	if err := db.Where("event_id = ? AND local_id = ?", 2, 0).First(&other).Error; err != nil {
		t.Fatalf("load other ticket: %v", err)
	}
	if other.Refunded {
		t.Fatal("ticket of another event must not be refunded")
	}

	balance, err := svc.Balance(ctx)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 99 {
		t.Fatalf("expected remaining escrow 99, got %d", balance)
	}

	for account, want := range map[string]int64{"acct_a": 10, "acct_b": 12} {
		got, err := rail.Balance(ctx, account)
		if err != nil {
			t.Fatalf("rail balance %s: %v", account, err)
		}
		if got != want {
			t.Fatalf("expected %s to hold %d, got %d", account, want, got)
		}
	}
}

func TestRefundAllAbortsWhenTransferFails(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	rail := &failingRail{failAccount: "acct_b"}
	svc, err := NewService(NewRepository(db), rail)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	seedTickets(t, db, []models.Ticket{
		{EventID: 1, LocalID: 0, Owner: "acct_a", CostPaid: 10},
		{EventID: 1, LocalID: 1, Owner: "acct_b", CostPaid: 10},
	})
	mustExec(t, db, "UPDATE escrow SET balance = 20 WHERE id = 1")

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.RefundAll(ctx, tx, 1)
	})
	if err == nil {
		t.Fatal("expected refund to fail")
	}

	var refunded int64
	if err := db.Model(&models.Ticket{}).Where("refunded = ?", true).Count(&refunded).Error; err != nil {
		t.Fatalf("count refunded: %v", err)
	}
	if refunded != 0 {
		t.Fatalf("expected no refunded tickets after abort, got %d", refunded)
	}

	balance, err := svc.Balance(ctx)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 20 {
		t.Fatalf("expected untouched escrow 20, got %d", balance)
	}
}

func TestRefundAllSkipsAlreadyRefunded(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	rail, err := payments.NewAccountLedger(db)
	if err != nil {
		t.Fatalf("new rail: %v", err)
	}
	svc, err := NewService(NewRepository(db), rail)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	seedTickets(t, db, []models.Ticket{
		{EventID: 1, LocalID: 0, Owner: "acct_a", CostPaid: 10, Refunded: true},
		{EventID: 1, LocalID: 1, Owner: "acct_b", CostPaid: 10},
	})
	mustExec(t, db, "UPDATE escrow SET balance = 10 WHERE id = 1")

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.RefundAll(ctx, tx, 1)
	})
	if err != nil {
		t.Fatalf("refund all: %v", err)
	}

	got, err := rail.Balance(ctx, "acct_a")
	if err != nil {
		t.Fatalf("rail balance: %v", err)
	}
	if got != 0 {
		t.Fatalf("already refunded ticket must not pay again, got %d", got)
	}

	balance, err := svc.Balance(ctx)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected drained escrow, got %d", balance)
	}
}

type failingRail struct {
	failAccount string
}

func (f *failingRail) Transfer(ctx context.Context, tx *gorm.DB, to string, amount int64) error {
	if to == f.failAccount {
		return errors.New("rail rejected transfer")
	}
	return nil
}

func (f *failingRail) Collect(ctx context.Context, tx *gorm.DB, from string, amount int64) error {
	return nil
}

func (f *failingRail) Balance(ctx context.Context, account string) (int64, error) {
	return 0, nil
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	rail, err := payments.NewAccountLedger(db)
	if err != nil {
		t.Fatalf("new rail: %v", err)
	}
	svc, err := NewService(NewRepository(db), rail)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedTickets(t *testing.T, db *gorm.DB, tickets []models.Ticket) {
	t.Helper()
	for i := range tickets {
		if err := db.Create(&tickets[i]).Error; err != nil {
			t.Fatalf("seed ticket: %v", err)
		}
	}
}

func mustExec(t *testing.T, db *gorm.DB, sql string) {
	t.Helper()
	if err := db.Exec(sql).Error; err != nil {
		t.Fatalf("exec %q: %v", sql, err)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:escrow_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.EscrowAccount{}, &models.Ticket{}, &models.LedgerAccount{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&models.EscrowAccount{ID: models.EscrowSingletonID}).Error; err != nil {
		t.Fatalf("seed escrow row: %v", err)
	}
	return db
}
