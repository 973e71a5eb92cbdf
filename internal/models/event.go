package models

import "time"

// Routing keys for reservation lifecycle messages.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationConfirmed = "reservation.confirmed"
	EventReservationCancelled = "reservation.cancelled"
	EventSlotCreated          = "slot.created"
)

// ReservationEvent is the message body published on every reservation transition.
type ReservationEvent struct {
	ReservationID uint              `json:"reservation_id"`
	SlotID        uint              `json:"slot_id"`
	CustomerID    string            `json:"customer_id"`
	PartySize     int               `json:"party_size"`
	Status        ReservationStatus `json:"status"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

func NewReservationEvent(r *Reservation) ReservationEvent {
	return ReservationEvent{
		ReservationID: r.ID,
		SlotID:        r.SlotID,
		CustomerID:    r.CustomerID,
		PartySize:     r.PartySize,
		Status:        r.Status,
		OccurredAt:    time.Now().UTC(),
	}
}
