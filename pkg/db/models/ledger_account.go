package models

// LedgerAccount holds the spendable balance of one account on the payment
// rail. Rows are created lazily on first credit.
type LedgerAccount struct {
	Account string `gorm:"column:account;primaryKey"`
	Balance int64  `gorm:"column:balance;not null;default:0"`
}

func (LedgerAccount) TableName() string {
	return "ledger_accounts"
}
