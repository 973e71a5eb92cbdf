package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/slotify/slotify/internal/models"
	"github.com/slotify/slotify/internal/repository"
	"gorm.io/gorm"
)

const clockLayout = "15:04"

type CatalogService interface {
	CreateAppointment(ctx context.Context, appointment *models.Appointment) error
	GetAppointment(ctx context.Context, id uint) (*models.Appointment, error)
	ListAppointments(ctx context.Context, organizerID string) ([]models.Appointment, error)
	CreateSlot(ctx context.Context, slot *models.TimeSlot) error
	GetSlot(ctx context.Context, id uint) (*models.TimeSlot, error)
	ListSlots(ctx context.Context, appointmentID uint) ([]models.TimeSlot, error)
}

type catalogService struct {
	appointmentRepo repository.AppointmentRepository
	slotRepo        repository.SlotRepository
	events          EventPublisher
	cache           AvailabilityCache
}

func NewCatalogService(
	appointmentRepo repository.AppointmentRepository,
	slotRepo repository.SlotRepository,
	events EventPublisher,
	cache AvailabilityCache,
) CatalogService {
	return &catalogService{
		appointmentRepo: appointmentRepo,
		slotRepo:        slotRepo,
		events:          events,
		cache:           cache,
	}
}

func (s *catalogService) CreateAppointment(ctx context.Context, appointment *models.Appointment) error {
	if appointment.DefaultCapacity <= 0 {
		appointment.DefaultCapacity = 1
	}
	if err := s.appointmentRepo.Create(ctx, appointment); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

func (s *catalogService) GetAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	appointment, err := s.appointmentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return appointment, nil
}

func (s *catalogService) ListAppointments(ctx context.Context, organizerID string) ([]models.Appointment, error) {
	return s.appointmentRepo.FindAll(ctx, organizerID)
}

// CreateSlot adds a slot to an existing appointment type. A zero MaxCapacity
// takes the appointment's default; BookedCapacity always starts at zero.
func (s *catalogService) CreateSlot(ctx context.Context, slot *models.TimeSlot) error {
	appointment, err := s.GetAppointment(ctx, slot.AppointmentID)
	if err != nil {
		return err
	}

	start, errStart := time.Parse(clockLayout, slot.StartTime)
	end, errEnd := time.Parse(clockLayout, slot.EndTime)
	if errStart != nil || errEnd != nil || !end.After(start) {
		return ErrInvalidSlotWindow
	}

	if slot.MaxCapacity == 0 {
		slot.MaxCapacity = appointment.DefaultCapacity
	}
	if slot.MaxCapacity < 1 {
		return ErrInvalidCapacity
	}
	slot.BookedCapacity = 0

	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	// Publish slot.created so listeners can show the new slot
	if s.events != nil {
		if err := s.events.Publish(ctx, models.EventSlotCreated, slot); err != nil {
			log.Printf("[CatalogService] publish slot.created for slot %d: %v", slot.ID, err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Publish(ctx, slot.Availability()); err != nil {
			log.Printf("[CatalogService] availability warm for slot %d: %v", slot.ID, err)
		}
	}

	return nil
}

func (s *catalogService) GetSlot(ctx context.Context, id uint) (*models.TimeSlot, error) {
	slot, err := s.slotRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return slot, nil
}

func (s *catalogService) ListSlots(ctx context.Context, appointmentID uint) ([]models.TimeSlot, error) {
	if _, err := s.GetAppointment(ctx, appointmentID); err != nil {
		return nil, err
	}
	return s.slotRepo.FindByAppointmentID(ctx, appointmentID)
}
