package repository

import (
	"context"

	"github.com/slotify/slotify/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SlotRepository interface {
	Create(ctx context.Context, slot *models.TimeSlot) error
	FindByID(ctx context.Context, id uint) (*models.TimeSlot, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.TimeSlot, error)
	FindByAppointmentID(ctx context.Context, appointmentID uint) ([]models.TimeSlot, error)
	IncrementBooked(ctx context.Context, tx *gorm.DB, id uint, n int) error
	DecrementBooked(ctx context.Context, tx *gorm.DB, id uint, n int) error
}

type slotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) SlotRepository {
	return &slotRepository{db: db}
}

func (r *slotRepository) Create(ctx context.Context, slot *models.TimeSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *slotRepository) FindByID(ctx context.Context, id uint) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	if err := r.db.WithContext(ctx).First(&slot, id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// FindByIDForUpdate acquires a row-level lock on the slot within the given transaction.
func (r *slotRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&slot, id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) FindByAppointmentID(ctx context.Context, appointmentID uint) ([]models.TimeSlot, error) {
	var slots []models.TimeSlot
	if err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("date ASC, start_time ASC, id ASC").
		Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

// IncrementBooked adds n to booked_capacity and bumps the slot version.
func (r *slotRepository) IncrementBooked(ctx context.Context, tx *gorm.DB, id uint, n int) error {
	return tx.WithContext(ctx).
		Model(&models.TimeSlot{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"booked_capacity": gorm.Expr("booked_capacity + ?", n),
			"version":         gorm.Expr("version + 1"),
		}).Error
}

// DecrementBooked never takes booked_capacity below zero.
func (r *slotRepository) DecrementBooked(ctx context.Context, tx *gorm.DB, id uint, n int) error {
	return tx.WithContext(ctx).
		Model(&models.TimeSlot{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"booked_capacity": gorm.Expr("GREATEST(booked_capacity - ?, 0)", n),
			"version":         gorm.Expr("version + 1"),
		}).Error
}
