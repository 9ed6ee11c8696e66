package models

// AttendanceToken is the proof-of-attendance record minted to a ticket owner
// at payout time. Ids are allocated from the shared token counter, strictly
// increasing across all events, and never reused.
type AttendanceToken struct {
	ID            int64  `gorm:"column:id;primaryKey" json:"id"`
	EventID       int64  `gorm:"column:event_id;not null;index;uniqueIndex:ux_attendance_tokens_ticket" json:"eventId"`
	TicketLocalID int64  `gorm:"column:ticket_local_id;not null;uniqueIndex:ux_attendance_tokens_ticket" json:"ticketLocalId"`
	Owner         string `gorm:"column:owner;not null;index" json:"owner"`
	MintedAt      int64  `gorm:"column:minted_at;not null" json:"mintedAt"`
}

func (AttendanceToken) TableName() string {
	return "attendance_tokens"
}
