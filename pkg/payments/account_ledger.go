package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountLedger struct {
	db *gorm.DB
}

// NewAccountLedger returns a Rail backed by the ledger_accounts table.
// Collect fails when the source account cannot cover the amount.
func NewAccountLedger(db *gorm.DB) (Rail, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle required")
	}
	return &accountLedger{db: db}, nil
}

func (l *accountLedger) Transfer(ctx context.Context, tx *gorm.DB, to string, amount int64) error {
	if err := validateMovement(to, amount); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	handle := l.handle(tx)

	err := handle.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"balance": gorm.Expr("balance + ?", amount),
			}),
		}).
		Create(&models.LedgerAccount{Account: to, Balance: amount}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransferFailed, err, "crediting account")
	}
	return nil
}

func (l *accountLedger) Collect(ctx context.Context, tx *gorm.DB, from string, amount int64) error {
	if err := validateMovement(from, amount); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	handle := l.handle(tx)

	result := handle.WithContext(ctx).
		Model(&models.LedgerAccount{}).
		Where("account = ? AND balance >= ?", from, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransferFailed, result.Error, "debiting account")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeTransferFailed, "insufficient funds")
	}
	return nil
}

func (l *accountLedger) Balance(ctx context.Context, account string) (int64, error) {
	if strings.TrimSpace(account) == "" {
		return 0, fmt.Errorf("account is required")
	}

	var record models.LedgerAccount
	err := l.db.WithContext(ctx).
		Where("account = ?", account).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return record.Balance, nil
}

func (l *accountLedger) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return l.db
}

func validateMovement(account string, amount int64) error {
	if strings.TrimSpace(account) == "" {
		return fmt.Errorf("account is required")
	}
	if amount < 0 {
		return fmt.Errorf("amount must not be negative")
	}
	return nil
}
