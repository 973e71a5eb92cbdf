package service

import (
	"context"
	"sync"
	"time"

	"github.com/slotify/slotify/internal/models"
	"gorm.io/gorm"
)

// --- In-memory store shared by the fake repositories ---

type memStore struct {
	mu           sync.Mutex
	slots        map[uint]models.TimeSlot
	reservations map[uint]models.Reservation
	nextResID    uint
}

func newMemStore() *memStore {
	return &memStore{
		slots:        make(map[uint]models.TimeSlot),
		reservations: make(map[uint]models.Reservation),
	}
}

func (m *memStore) addSlot(id uint, maxCap, booked int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[id] = models.TimeSlot{ID: id, AppointmentID: 1, MaxCapacity: maxCap, BookedCapacity: booked, StartTime: "09:00", EndTime: "10:00"}
}

// addReservation stores r as-is, bypassing the allocator.
func (m *memStore) addReservation(r models.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextResID++
	r.ID = m.nextResID
	m.reservations[r.ID] = r
}

func (m *memStore) booked(id uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[id].BookedCapacity
}

func (m *memStore) snapshot() (map[uint]models.TimeSlot, map[uint]models.Reservation, uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots := make(map[uint]models.TimeSlot, len(m.slots))
	for k, v := range m.slots {
		slots[k] = v
	}
	res := make(map[uint]models.Reservation, len(m.reservations))
	for k, v := range m.reservations {
		res[k] = v
	}
	return slots, res, m.nextResID
}

func (m *memStore) restore(slots map[uint]models.TimeSlot, res map[uint]models.Reservation, next uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots, m.reservations, m.nextResID = slots, res, next
}

// --- Fake Transactor: one transaction at a time, rollback on error ---

type fakeTransactor struct {
	mu    sync.Mutex
	store *memStore
	err   error
}

func (f *fakeTransactor) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	slots, res, next := f.store.snapshot()
	if err := fn(nil); err != nil {
		f.store.restore(slots, res, next)
		return err
	}
	return nil
}

// --- Fake SlotRepository ---

type fakeSlotRepo struct {
	store *memStore
	// afterRead runs once, after the next unlocked FindByID.
	afterRead func()
}

func (r *fakeSlotRepo) Create(ctx context.Context, slot *models.TimeSlot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	slot.ID = uint(len(r.store.slots) + 1)
	r.store.slots[slot.ID] = *slot
	return nil
}

func (r *fakeSlotRepo) FindByID(ctx context.Context, id uint) (*models.TimeSlot, error) {
	slot, err := r.read(id)
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return slot, err
}

func (r *fakeSlotRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.TimeSlot, error) {
	return r.read(id)
}

func (r *fakeSlotRepo) read(id uint) (*models.TimeSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	slot, ok := r.store.slots[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &slot, nil
}

func (r *fakeSlotRepo) FindByAppointmentID(ctx context.Context, appointmentID uint) ([]models.TimeSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.TimeSlot
	for _, s := range r.store.slots {
		if s.AppointmentID == appointmentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) IncrementBooked(ctx context.Context, tx *gorm.DB, id uint, n int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s := r.store.slots[id]
	s.BookedCapacity += n
	s.Version++
	r.store.slots[id] = s
	return nil
}

func (r *fakeSlotRepo) DecrementBooked(ctx context.Context, tx *gorm.DB, id uint, n int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s := r.store.slots[id]
	s.BookedCapacity = max(s.BookedCapacity-n, 0)
	s.Version++
	r.store.slots[id] = s
	return nil
}

// --- Fake ReservationRepository ---

type fakeReservationRepo struct {
	store *memStore
}

func (r *fakeReservationRepo) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextResID++
	reservation.ID = r.store.nextResID
	reservation.CreatedAt = time.Now()
	r.store.reservations[reservation.ID] = *reservation
	return nil
}

func (r *fakeReservationRepo) FindByID(ctx context.Context, id uint) (*models.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	res, ok := r.store.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &res, nil
}

func (r *fakeReservationRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Reservation, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeReservationRepo) FindBySlotID(ctx context.Context, slotID uint, status *models.ReservationStatus) ([]models.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Reservation
	for _, res := range r.store.reservations {
		if res.SlotID != slotID {
			continue
		}
		if status != nil && res.Status != *status {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *fakeReservationRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.ReservationStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	res := r.store.reservations[id]
	res.Status = status
	r.store.reservations[id] = res
	return nil
}

func (r *fakeReservationRepo) MarkCancelled(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	res := r.store.reservations[id]
	res.Status = models.StatusCancelled
	res.CancelledAt = &at
	r.store.reservations[id] = res
	return nil
}

func (r *fakeReservationRepo) SumActivePartySize(ctx context.Context, tx *gorm.DB, slotID uint) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var sum int64
	for _, res := range r.store.reservations {
		if res.SlotID == slotID && res.Status != models.StatusCancelled {
			sum += int64(res.PartySize)
		}
	}
	return sum, nil
}

// --- Recording collaborators ---

type publishedEvent struct {
	routingKey string
	payload    any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{routingKey: routingKey, payload: payload})
	return p.err
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, len(p.events))
	for i, e := range p.events {
		keys[i] = e.routingKey
	}
	return keys
}

type fakeCache struct {
	mu        sync.Mutex
	entries   map[uint]models.Availability
	published []models.Availability
	getErr    error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[uint]models.Availability)}
}

func (c *fakeCache) Get(ctx context.Context, slotID uint) (models.Availability, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return models.Availability{}, false, c.getErr
	}
	a, ok := c.entries[slotID]
	return a, ok, nil
}

// Publish keeps the higher slot version, like the Redis script does.
func (c *fakeCache) Publish(ctx context.Context, a models.Availability) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, a)
	if cur, ok := c.entries[a.SlotID]; ok && cur.Version > a.Version {
		return nil
	}
	c.entries[a.SlotID] = a
	return nil
}

// --- Helpers ---

type allocatorFixture struct {
	store     *memStore
	tx        *fakeTransactor
	slots     *fakeSlotRepo
	publisher *recordingPublisher
	cache     *fakeCache
	svc       SlotAllocator
}

func newAllocatorFixture() *allocatorFixture {
	store := newMemStore()
	tx := &fakeTransactor{store: store}
	pub := &recordingPublisher{}
	cache := newFakeCache()
	slots := &fakeSlotRepo{store: store}
	svc := NewSlotAllocator(tx, slots, &fakeReservationRepo{store: store}, pub, cache)
	return &allocatorFixture{store: store, tx: tx, slots: slots, publisher: pub, cache: cache, svc: svc}
}
