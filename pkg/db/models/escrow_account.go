package models

// EscrowAccount is the singleton row holding the ledger's pooled,
// undistributed funds across all events.
type EscrowAccount struct {
	ID      int64 `gorm:"column:id;primaryKey"`
	Balance int64 `gorm:"column:balance;not null;default:0"`
}

func (EscrowAccount) TableName() string {
	return "escrow"
}

// EscrowSingletonID is the fixed id of the only escrow row.
const EscrowSingletonID = 1
