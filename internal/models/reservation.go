package models

import "time"

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// ActiveStatuses are the statuses that hold capacity on a slot.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusConfirmed}

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

type Reservation struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	SlotID      uint              `gorm:"not null;index" json:"slot_id"`
	CustomerID  string            `gorm:"not null;index" json:"customer_id"`
	PartySize   int               `gorm:"not null" json:"party_size"`
	Status      ReservationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CancelledAt *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	Slot *TimeSlot `gorm:"foreignKey:SlotID" json:"slot,omitempty"`
}
