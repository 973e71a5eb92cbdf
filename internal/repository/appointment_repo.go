package repository

import (
	"context"

	"github.com/slotify/slotify/internal/models"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	FindByID(ctx context.Context, id uint) (*models.Appointment, error)
	FindAll(ctx context.Context, organizerID string) ([]models.Appointment, error)
}

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	return r.db.WithContext(ctx).Create(appointment).Error
}

func (r *appointmentRepository) FindByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := r.db.WithContext(ctx).First(&appointment, id).Error; err != nil {
		return nil, err
	}
	return &appointment, nil
}

// FindAll lists appointment types, optionally narrowed to one organizer.
func (r *appointmentRepository) FindAll(ctx context.Context, organizerID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	q := r.db.WithContext(ctx)
	if organizerID != "" {
		q = q.Where("organizer_id = ?", organizerID)
	}
	if err := q.Order("id ASC").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}
