package models

import "time"

// Table status values. Status is a cached projection of the booking
// ledger, never a source of truth; it gets recomputed after every
// status-affecting booking write.
const (
	TableAvailable = "available"
	TableReserved  = "reserved"
	TableOccupied  = "occupied"
)

type Table struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TableID   int       `gorm:"uniqueIndex;not null" json:"table_id"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	Location  string    `gorm:"type:varchar(100);not null" json:"location"`
	Status    string    `gorm:"type:varchar(50);not null;default:'available'" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
