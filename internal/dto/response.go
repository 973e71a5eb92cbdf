package dto

import (
	"time"

	"github.com/slotify/slotify/internal/models"
)

const dateLayout = "2006-01-02"

type ReservationResponse struct {
	ID          uint                     `json:"id"`
	SlotID      uint                     `json:"slot_id"`
	CustomerID  string                   `json:"customer_id"`
	PartySize   int                      `json:"party_size"`
	Status      models.ReservationStatus `json:"status"`
	CancelledAt *time.Time               `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
}

type SlotResponse struct {
	ID                uint      `json:"id"`
	AppointmentID     uint      `json:"appointment_id"`
	Date              string    `json:"date"`
	StartTime         string    `json:"start_time"`
	EndTime           string    `json:"end_time"`
	MaxCapacity       int       `json:"max_capacity"`
	BookedCapacity    int       `json:"booked_capacity"`
	AvailableCapacity int       `json:"available_capacity"`
	IsFull            bool      `json:"is_full"`
	CreatedAt         time.Time `json:"created_at"`
}

type AppointmentResponse struct {
	ID              uint      `json:"id"`
	OrganizerID     string    `json:"organizer_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	DefaultCapacity int       `json:"default_capacity"`
	Price           float64   `json:"price"`
	CreatedAt       time.Time `json:"created_at"`
}

// ErrorResponse is the body of every failed request. Kind is one of the
// allocator's error kinds when the failure came from the booking core.
type ErrorResponse struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

func ToReservationResponse(r *models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:          r.ID,
		SlotID:      r.SlotID,
		CustomerID:  r.CustomerID,
		PartySize:   r.PartySize,
		Status:      r.Status,
		CancelledAt: r.CancelledAt,
		CreatedAt:   r.CreatedAt,
	}
}

func ToSlotResponse(s *models.TimeSlot) SlotResponse {
	return SlotResponse{
		ID:                s.ID,
		AppointmentID:     s.AppointmentID,
		Date:              s.Date.Format(dateLayout),
		StartTime:         s.StartTime,
		EndTime:           s.EndTime,
		MaxCapacity:       s.MaxCapacity,
		BookedCapacity:    s.BookedCapacity,
		AvailableCapacity: s.AvailableCapacity(),
		IsFull:            s.IsFull(),
		CreatedAt:         s.CreatedAt,
	}
}

func ToAppointmentResponse(a *models.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		OrganizerID:     a.OrganizerID,
		Title:           a.Title,
		Description:     a.Description,
		DurationMinutes: a.DurationMinutes,
		DefaultCapacity: a.DefaultCapacity,
		Price:           a.Price,
		CreatedAt:       a.CreatedAt,
	}
}
