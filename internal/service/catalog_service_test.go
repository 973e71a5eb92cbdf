package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slotify/slotify/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Mock AppointmentRepository ---

type mockAppointmentRepo struct {
	createFn   func(ctx context.Context, a *models.Appointment) error
	findByIDFn func(ctx context.Context, id uint) (*models.Appointment, error)
	findAllFn  func(ctx context.Context, organizerID string) ([]models.Appointment, error)
}

func (m *mockAppointmentRepo) Create(ctx context.Context, a *models.Appointment) error {
	return m.createFn(ctx, a)
}
func (m *mockAppointmentRepo) FindByID(ctx context.Context, id uint) (*models.Appointment, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockAppointmentRepo) FindAll(ctx context.Context, organizerID string) ([]models.Appointment, error) {
	return m.findAllFn(ctx, organizerID)
}

func sampleAppointment() *models.Appointment {
	return &models.Appointment{
		ID:              1,
		OrganizerID:     "org-1",
		Title:           "Pottery class",
		DurationMinutes: 90,
		DefaultCapacity: 6,
		Price:           45,
	}
}

func foundAppointment(ctx context.Context, id uint) (*models.Appointment, error) {
	if id != 1 {
		return nil, gorm.ErrRecordNotFound
	}
	return sampleAppointment(), nil
}

func newCatalog(repo *mockAppointmentRepo) (CatalogService, *memStore, *recordingPublisher, *fakeCache) {
	store := newMemStore()
	pub := &recordingPublisher{}
	cache := newFakeCache()
	return NewCatalogService(repo, &fakeSlotRepo{store: store}, pub, cache), store, pub, cache
}

// --- Tests ---

func TestCreateAppointment_Success(t *testing.T) {
	repo := &mockAppointmentRepo{
		createFn: func(ctx context.Context, a *models.Appointment) error {
			a.ID = 1
			return nil
		},
	}
	svc, _, _, _ := newCatalog(repo)

	a := &models.Appointment{OrganizerID: "org-1", Title: "Consultation", DurationMinutes: 30}
	err := svc.CreateAppointment(context.Background(), a)

	assert.NoError(t, err)
	assert.Equal(t, uint(1), a.ID)
	assert.Equal(t, 1, a.DefaultCapacity, "capacity defaults to one seat")
}

func TestCreateAppointment_RepoError(t *testing.T) {
	repo := &mockAppointmentRepo{
		createFn: func(ctx context.Context, a *models.Appointment) error {
			return errors.New("db connection failed")
		},
	}
	svc, _, _, _ := newCatalog(repo)

	err := svc.CreateAppointment(context.Background(), sampleAppointment())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "db connection failed")
}

func TestGetAppointment_NotFound(t *testing.T) {
	svc, _, _, _ := newCatalog(&mockAppointmentRepo{findByIDFn: foundAppointment})

	a, err := svc.GetAppointment(context.Background(), 999)

	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.Nil(t, a)
}

func TestListAppointments_ByOrganizer(t *testing.T) {
	var captured string
	repo := &mockAppointmentRepo{
		findAllFn: func(ctx context.Context, organizerID string) ([]models.Appointment, error) {
			captured = organizerID
			return []models.Appointment{*sampleAppointment()}, nil
		},
	}
	svc, _, _, _ := newCatalog(repo)

	list, err := svc.ListAppointments(context.Background(), "org-1")

	assert.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "org-1", captured)
}

func TestCreateSlot_DefaultsCapacityAndPublishes(t *testing.T) {
	svc, store, pub, cache := newCatalog(&mockAppointmentRepo{findByIDFn: foundAppointment})

	slot := &models.TimeSlot{
		AppointmentID:  1,
		Date:           time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
		StartTime:      "09:00",
		EndTime:        "10:30",
		BookedCapacity: 4,
	}
	err := svc.CreateSlot(context.Background(), slot)

	require.NoError(t, err)
	assert.Equal(t, 6, slot.MaxCapacity)
	assert.Equal(t, 0, slot.BookedCapacity, "new slots start empty")
	assert.Equal(t, 0, store.booked(slot.ID))
	assert.Equal(t, []string{models.EventSlotCreated}, pub.keys())

	a, ok, _ := cache.Get(context.Background(), slot.ID)
	assert.True(t, ok)
	assert.Equal(t, 6, a.AvailableCapacity)
}

func TestCreateSlot_Validation(t *testing.T) {
	svc, _, _, _ := newCatalog(&mockAppointmentRepo{findByIDFn: foundAppointment})

	err := svc.CreateSlot(context.Background(), &models.TimeSlot{AppointmentID: 1, StartTime: "10:00", EndTime: "09:00"})
	assert.ErrorIs(t, err, ErrInvalidSlotWindow)

	err = svc.CreateSlot(context.Background(), &models.TimeSlot{AppointmentID: 1, StartTime: "9am", EndTime: "10:00"})
	assert.ErrorIs(t, err, ErrInvalidSlotWindow)

	err = svc.CreateSlot(context.Background(), &models.TimeSlot{AppointmentID: 1, StartTime: "09:00", EndTime: "10:00", MaxCapacity: -1})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	err = svc.CreateSlot(context.Background(), &models.TimeSlot{AppointmentID: 2, StartTime: "09:00", EndTime: "10:00"})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestGetSlot_NotFound(t *testing.T) {
	svc, _, _, _ := newCatalog(&mockAppointmentRepo{findByIDFn: foundAppointment})

	_, err := svc.GetSlot(context.Background(), 5)

	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestListSlots(t *testing.T) {
	svc, store, _, _ := newCatalog(&mockAppointmentRepo{findByIDFn: foundAppointment})
	store.addSlot(1, 3, 0)

	slots, err := svc.ListSlots(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, slots, 1)

	_, err = svc.ListSlots(context.Background(), 2)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}
