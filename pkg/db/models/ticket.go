package models

// Ticket is proof of purchase of one seat. Identity is (event id, local id)
// with local ids contiguous from 0 within an event. CostPaid captures the
// event's ticket cost at purchase time and is never re-read from the event.
type Ticket struct {
	EventID     int64  `gorm:"column:event_id;primaryKey" json:"eventId"`
	LocalID     int64  `gorm:"column:local_id;primaryKey" json:"localId"`
	Owner       string `gorm:"column:owner;not null;index" json:"owner"`
	CostPaid    int64  `gorm:"column:cost_paid;not null" json:"costPaid"`
	PurchasedAt int64  `gorm:"column:purchased_at;not null" json:"purchasedAt"`
	Refunded    bool   `gorm:"column:refunded;not null;default:false" json:"refunded"`
	Minted      bool   `gorm:"column:minted;not null;default:false" json:"minted"`
}

func (Ticket) TableName() string {
	return "tickets"
}
