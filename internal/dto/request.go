package dto

// Party size is checked by the allocator, which owns the InvalidPartySize rule.
type CreateReservationRequest struct {
	CustomerID string `json:"customer_id" validate:"required,max=128"`
	PartySize  int    `json:"party_size"`
}

type CreateAppointmentRequest struct {
	OrganizerID     string  `json:"organizer_id" validate:"required"`
	Title           string  `json:"title" validate:"required,max=200"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0"`
	DefaultCapacity int     `json:"default_capacity" validate:"gte=0"`
	Price           float64 `json:"price" validate:"gte=0"`
}

type CreateSlotRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string `json:"end_time" validate:"required,datetime=15:04"`
	MaxCapacity int    `json:"max_capacity" validate:"gte=0"`
}
