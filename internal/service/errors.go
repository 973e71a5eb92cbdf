package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrSlotNotFound        = errors.New("slot not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidPartySize    = errors.New("party size must be between 1 and the slot's max capacity")
	ErrCapacityExceeded    = errors.New("slot no longer available")
	ErrInvalidState        = errors.New("reservation is cancelled")
	ErrRetryable           = errors.New("slot is busy, retry the request")

	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidSlotWindow   = errors.New("slot end_time must be after start_time (HH:MM)")
	ErrInvalidCapacity     = errors.New("max_capacity must be positive")
)

// Error kinds exposed to API callers.
const (
	KindSlotNotFound        = "SlotNotFound"
	KindReservationNotFound = "ReservationNotFound"
	KindInvalidPartySize    = "InvalidPartySize"
	KindCapacityExceeded    = "CapacityExceeded"
	KindInvalidState        = "InvalidState"
	KindRetryable           = "Retryable"
	KindAppointmentNotFound = "AppointmentNotFound"
	KindInvalidSlot         = "InvalidSlot"
	KindInternal            = "Internal"
)

func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrSlotNotFound):
		return KindSlotNotFound
	case errors.Is(err, ErrReservationNotFound):
		return KindReservationNotFound
	case errors.Is(err, ErrInvalidPartySize):
		return KindInvalidPartySize
	case errors.Is(err, ErrCapacityExceeded):
		return KindCapacityExceeded
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrRetryable):
		return KindRetryable
	case errors.Is(err, ErrAppointmentNotFound):
		return KindAppointmentNotFound
	case errors.Is(err, ErrInvalidSlotWindow), errors.Is(err, ErrInvalidCapacity):
		return KindInvalidSlot
	default:
		return KindInternal
	}
}

// PostgreSQL SQLSTATEs that mean "nothing was written, try again".
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// classify turns lock contention and deadline expiry into ErrRetryable and
// leaves every other error untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrRetryable, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %s", ErrRetryable, pgErr.Message)
		}
	}
	return err
}
