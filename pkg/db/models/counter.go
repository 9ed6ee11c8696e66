package models

// Counter is a named monotonically increasing allocator. Value holds the last
// id handed out; allocation bumps it inside the caller's transaction.
type Counter struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value;not null;default:0"`
}

func (Counter) TableName() string {
	return "counters"
}

// CounterTokenID seeds attendance token identities across all events.
const CounterTokenID = "token_id"
