package models

import "time"

type Notification struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	MessageID     string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"message_id"`
	CustomerID    string    `gorm:"not null;index" json:"customer_id"`
	ReservationID uint      `gorm:"not null;index" json:"reservation_id"`
	Kind          string    `gorm:"type:varchar(40);not null" json:"kind"`
	Body          string    `gorm:"not null" json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}
