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

const sideEffectTimeout = 5 * time.Second

// EventPublisher delivers reservation lifecycle messages, e.g. to RabbitMQ.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// AvailabilityCache holds display copies of slot availability.
type AvailabilityCache interface {
	Get(ctx context.Context, slotID uint) (models.Availability, bool, error)
	Publish(ctx context.Context, a models.Availability) error
}

type SlotAudit struct {
	SlotID          uint  `json:"slot_id"`
	MaxCapacity     int   `json:"max_capacity"`
	BookedCapacity  int   `json:"booked_capacity"`
	ActivePartySize int64 `json:"active_party_size"`
	Consistent      bool  `json:"consistent"`
}

// SlotAllocator is the only writer of TimeSlot.BookedCapacity.
type SlotAllocator interface {
	Reserve(ctx context.Context, slotID uint, customerID string, partySize int) (*models.Reservation, error)
	Release(ctx context.Context, reservationID uint) (*models.Reservation, error)
	Confirm(ctx context.Context, reservationID uint) (*models.Reservation, error)
	GetReservation(ctx context.Context, id uint) (*models.Reservation, error)
	ListReservations(ctx context.Context, slotID uint, status *models.ReservationStatus) ([]models.Reservation, error)
	Availability(ctx context.Context, slotID uint) (models.Availability, error)
	Audit(ctx context.Context, slotID uint) (*SlotAudit, error)
}

type slotAllocator struct {
	tx              repository.Transactor
	slotRepo        repository.SlotRepository
	reservationRepo repository.ReservationRepository
	events          EventPublisher
	cache           AvailabilityCache
}

// NewSlotAllocator wires the allocator. events and cache may be nil.
func NewSlotAllocator(
	tx repository.Transactor,
	slotRepo repository.SlotRepository,
	reservationRepo repository.ReservationRepository,
	events EventPublisher,
	cache AvailabilityCache,
) SlotAllocator {
	return &slotAllocator{
		tx:              tx,
		slotRepo:        slotRepo,
		reservationRepo: reservationRepo,
		events:          events,
		cache:           cache,
	}
}

func (s *slotAllocator) Reserve(ctx context.Context, slotID uint, customerID string, partySize int) (*models.Reservation, error) {
	if partySize < 1 {
		return nil, ErrInvalidPartySize
	}

	var (
		result   *models.Reservation
		snapshot models.Availability
	)

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		// 1. Lock the slot row: serializes concurrent reserve/release on this slot
		slot, err := s.slotRepo.FindByIDForUpdate(ctx, tx, slotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return err
		}

		// 2. Admission check against the locked value
		if partySize > slot.MaxCapacity {
			return ErrInvalidPartySize
		}
		if slot.BookedCapacity+partySize > slot.MaxCapacity {
			return ErrCapacityExceeded
		}

		// 3. Take the capacity and record the reservation together
		if err := s.slotRepo.IncrementBooked(ctx, tx, slotID, partySize); err != nil {
			return err
		}
		reservation := &models.Reservation{
			SlotID:     slotID,
			CustomerID: customerID,
			PartySize:  partySize,
			Status:     models.StatusPending,
		}
		if err := s.reservationRepo.Create(ctx, tx, reservation); err != nil {
			return err
		}

		slot.BookedCapacity += partySize
		slot.Version++
		slot.UpdatedAt = time.Now()
		snapshot = slot.Availability()
		result = reservation
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	s.afterCommit(ctx, models.EventReservationCreated, result, &snapshot)
	return result, nil
}

func (s *slotAllocator) Release(ctx context.Context, reservationID uint) (*models.Reservation, error) {
	existing, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, classify(err)
	}

	var (
		result   *models.Reservation
		snapshot *models.Availability
	)

	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		// Lock order is slot then reservation, same as Reserve.
		slot, err := s.slotRepo.FindByIDForUpdate(ctx, tx, existing.SlotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return err
		}

		reservation, err := s.reservationRepo.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		result = reservation

		// Already released: capacity was restored by the first call.
		if reservation.Status == models.StatusCancelled {
			return nil
		}

		now := time.Now().UTC()
		if err := s.reservationRepo.MarkCancelled(ctx, tx, reservationID, now); err != nil {
			return err
		}
		if err := s.slotRepo.DecrementBooked(ctx, tx, slot.ID, reservation.PartySize); err != nil {
			return err
		}

		reservation.Status = models.StatusCancelled
		reservation.CancelledAt = &now
		slot.BookedCapacity = max(slot.BookedCapacity-reservation.PartySize, 0)
		slot.Version++
		slot.UpdatedAt = now
		snap := slot.Availability()
		snapshot = &snap
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	if snapshot != nil {
		s.afterCommit(ctx, models.EventReservationCancelled, result, snapshot)
	}
	return result, nil
}

func (s *slotAllocator) Confirm(ctx context.Context, reservationID uint) (*models.Reservation, error) {
	var (
		result       *models.Reservation
		transitioned bool
	)

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		reservation, err := s.reservationRepo.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			return err
		}

		switch reservation.Status {
		case models.StatusConfirmed:
			result = reservation
			return nil
		case models.StatusCancelled:
			return ErrInvalidState
		}

		if err := s.reservationRepo.UpdateStatus(ctx, tx, reservationID, models.StatusConfirmed); err != nil {
			return err
		}
		reservation.Status = models.StatusConfirmed
		result = reservation
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	if transitioned {
		s.afterCommit(ctx, models.EventReservationConfirmed, result, nil)
	}
	return result, nil
}

func (s *slotAllocator) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return reservation, nil
}

func (s *slotAllocator) ListReservations(ctx context.Context, slotID uint, status *models.ReservationStatus) ([]models.Reservation, error) {
	return s.reservationRepo.FindBySlotID(ctx, slotID, status)
}

// Availability answers display reads. The value may lag behind committed
// reservations and must not be used for admission. A warm after a miss carries
// the version it read, so it never replaces a snapshot from a later commit.
func (s *slotAllocator) Availability(ctx context.Context, slotID uint) (models.Availability, error) {
	if s.cache != nil {
		a, ok, err := s.cache.Get(ctx, slotID)
		if err != nil {
			log.Printf("[SlotAllocator] availability cache read for slot %d: %v", slotID, err)
		} else if ok {
			return a, nil
		}
	}

	slot, err := s.slotRepo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Availability{}, ErrSlotNotFound
		}
		return models.Availability{}, err
	}

	a := slot.Availability()
	if s.cache != nil {
		if err := s.cache.Publish(ctx, a); err != nil {
			log.Printf("[SlotAllocator] availability cache warm for slot %d: %v", slotID, err)
		}
	}
	return a, nil
}

// Audit checks the conservation law for one slot under its row lock.
func (s *slotAllocator) Audit(ctx context.Context, slotID uint) (*SlotAudit, error) {
	var audit *SlotAudit

	err := s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		slot, err := s.slotRepo.FindByIDForUpdate(ctx, tx, slotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return err
		}
		sum, err := s.reservationRepo.SumActivePartySize(ctx, tx, slotID)
		if err != nil {
			return fmt.Errorf("sum active party size: %w", err)
		}
		audit = &SlotAudit{
			SlotID:          slot.ID,
			MaxCapacity:     slot.MaxCapacity,
			BookedCapacity:  slot.BookedCapacity,
			ActivePartySize: sum,
			Consistent:      int64(slot.BookedCapacity) == sum && slot.BookedCapacity <= slot.MaxCapacity,
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return audit, nil
}

// afterCommit runs best-effort side effects. The operation has already
// committed, so failures are logged and never returned.
func (s *slotAllocator) afterCommit(ctx context.Context, routingKey string, r *models.Reservation, snapshot *models.Availability) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if s.events != nil {
		if err := s.events.Publish(ctx, routingKey, models.NewReservationEvent(r)); err != nil {
			log.Printf("[SlotAllocator] publish %s for reservation %d: %v", routingKey, r.ID, err)
		}
	}
	if s.cache != nil && snapshot != nil {
		if err := s.cache.Publish(ctx, *snapshot); err != nil {
			log.Printf("[SlotAllocator] availability refresh for slot %d: %v", snapshot.SlotID, err)
		}
	}
}
