package models

// Event is a sellable offering with a fixed seat capacity. Identity and owner
// are immutable after creation; the four flags only ever move false -> true.
type Event struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"column:title;not null" json:"title"`
	Description string `gorm:"column:description;not null" json:"description"`
	ImageURL    string `gorm:"column:image_url;not null" json:"imageUrl"`
	Owner       string `gorm:"column:owner;not null;index" json:"owner"`
	TicketCost  int64  `gorm:"column:ticket_cost;not null" json:"ticketCost"`
	Capacity    int64  `gorm:"column:capacity;not null" json:"capacity"`
	SeatsSold   int64  `gorm:"column:seats_sold;not null;default:0" json:"seatsSold"`
	StartsAt    int64  `gorm:"column:starts_at;not null" json:"startsAt"`
	EndsAt      int64  `gorm:"column:ends_at;not null" json:"endsAt"`
	CreatedAt   int64  `gorm:"column:created_at;not null" json:"createdAt"`
	Deleted     bool   `gorm:"column:deleted;not null;default:false" json:"deleted"`
	PaidOut     bool   `gorm:"column:paid_out;not null;default:false" json:"paidOut"`
	Refunded    bool   `gorm:"column:refunded;not null;default:false" json:"refunded"`
	Minted      bool   `gorm:"column:minted;not null;default:false" json:"minted"`
}

func (Event) TableName() string {
	return "events"
}
