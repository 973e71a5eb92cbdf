package models

import "time"

// TimeSlot's Version goes up by one with every booked_capacity change.
type TimeSlot struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AppointmentID  uint      `gorm:"not null;index" json:"appointment_id"`
	Date           time.Time `gorm:"type:date;not null" json:"date"`
	StartTime      string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime        string    `gorm:"type:varchar(5);not null" json:"end_time"`
	MaxCapacity    int       `gorm:"not null" json:"max_capacity"`
	BookedCapacity int       `gorm:"not null;default:0" json:"booked_capacity"`
	Version        int64     `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Appointment *Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}

func (s *TimeSlot) AvailableCapacity() int {
	return s.MaxCapacity - s.BookedCapacity
}

func (s *TimeSlot) IsFull() bool {
	return s.BookedCapacity >= s.MaxCapacity
}

// Availability is a point-in-time view of a slot's capacity, used for display only.
// Version orders snapshots of the same slot.
type Availability struct {
	SlotID            uint      `json:"slot_id"`
	MaxCapacity       int       `json:"max_capacity"`
	BookedCapacity    int       `json:"booked_capacity"`
	AvailableCapacity int       `json:"available_capacity"`
	Version           int64     `json:"version"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (s *TimeSlot) Availability() Availability {
	return Availability{
		SlotID:            s.ID,
		MaxCapacity:       s.MaxCapacity,
		BookedCapacity:    s.BookedCapacity,
		AvailableCapacity: s.AvailableCapacity(),
		Version:           s.Version,
		UpdatedAt:         s.UpdatedAt.UTC(),
	}
}
