package models

import "time"

// Booking lifecycle statuses. Cancelled is terminal.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking provenance tags. Informational only, never affects scheduling.
const (
	SourceInternal     = "internal"
	SourceExternal     = "external"
	SourceEmbeddedForm = "embedded_form"
)

// DefaultDuration is the booking length in minutes when the caller
// does not specify one.
const DefaultDuration = 120

type Booking struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BookingID    string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"booking_id"`
	CustomerName string    `gorm:"type:varchar(255);not null" json:"customer_name"`
	Email        *string   `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone        *string   `gorm:"type:varchar(50)" json:"phone,omitempty"`
	PartySize    int       `gorm:"not null" json:"party_size"`
	TableID      int       `gorm:"index;not null" json:"table_id"`
	Table        *Table    `gorm:"foreignKey:TableID;references:TableID" json:"table,omitempty"`
	BookingTime  time.Time `gorm:"index;not null" json:"booking_time"`
	EndTime      time.Time `gorm:"not null" json:"end_time"`
	Duration     int       `gorm:"not null;default:120" json:"duration"`
	Status       string    `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	Notes        string    `gorm:"type:text" json:"notes"`
	Source       string    `gorm:"type:varchar(20);not null;default:'internal'" json:"source"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// IsActive reports whether the booking still occupies its table.
// Cancelled bookings never block a slot.
func (b *Booking) IsActive() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}
