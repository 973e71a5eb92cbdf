package models

import "time"

// Appointment is a bookable appointment type published by an organizer.
type Appointment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrganizerID     string    `gorm:"not null;index" json:"organizer_id"`
	Title           string    `gorm:"not null" json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	DefaultCapacity int       `gorm:"not null;default:1" json:"default_capacity"`
	Price           float64   `gorm:"not null;default:0" json:"price"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
