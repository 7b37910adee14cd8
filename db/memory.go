package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"yatra/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps every collection in process memory. It enforces the same
// uniqueness and validation rules as MongoStore and is meant for tests and
// local runs without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[primitive.ObjectID]models.User
	temples  map[primitive.ObjectID]models.Temple
	bookings map[primitive.ObjectID]models.Booking
	samples  map[primitive.ObjectID]models.CrowdSample
	alerts   map[primitive.ObjectID]models.Alert
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[primitive.ObjectID]models.User),
		temples:  make(map[primitive.ObjectID]models.Temple),
		bookings: make(map[primitive.ObjectID]models.Booking),
		samples:  make(map[primitive.ObjectID]models.CrowdSample),
		alerts:   make(map[primitive.ObjectID]models.Alert),
	}
}

func (s *MemoryStore) Users() UserRepository               { return memUsers{s} }
func (s *MemoryStore) Temples() TempleRepository           { return memTemples{s} }
func (s *MemoryStore) Bookings() BookingRepository         { return memBookings{s} }
func (s *MemoryStore) CrowdSamples() CrowdSampleRepository { return memCrowdSamples{s} }
func (s *MemoryStore) Alerts() AlertRepository             { return memAlerts{s} }

func (s *MemoryStore) EnsureIndexes(context.Context) error { return nil }
func (s *MemoryStore) Ping(ctx context.Context) error      { return ctx.Err() }
func (s *MemoryStore) Close(context.Context) error         { return nil }

// CrowdSampleCount is exposed for tests; samples are never read back otherwise.
func (s *MemoryStore) CrowdSampleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// CrowdSampleList returns a snapshot of stored samples.
func (s *MemoryStore) CrowdSampleList() []models.CrowdSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CrowdSample, 0, len(s.samples))
	for _, c := range s.samples {
		out = append(out, c)
	}
	return out
}

// AlertList returns a snapshot of stored alerts.
func (s *MemoryStore) AlertList() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, a)
	}
	return out
}

// BookingCount returns how many bookings exist across all users.
func (s *MemoryStore) BookingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bookings)
}

// ---------- users ----------

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.Email = models.NormalizeEmail(u.Email)
	u.ApplyDefaults()
	if err := u.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("insert user: %w", ErrDuplicate)
		}
	}
	u.ID = primitive.NewObjectID()
	stamp(&u.CreatedAt, &u.UpdatedAt)
	r.s.users[u.ID] = *u
	return nil
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email = models.NormalizeEmail(email)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("find user: %w", ErrNotFound)
}

// ---------- temples ----------

type memTemples struct{ s *MemoryStore }

func (r memTemples) Create(ctx context.Context, t *models.Temple) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.ApplyDefaults()
	if err := t.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = primitive.NewObjectID()
	stamp(&t.CreatedAt, &t.UpdatedAt)
	r.s.temples[t.ID] = *t
	return nil
}

func (r memTemples) FindAll(ctx context.Context) ([]models.Temple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	temples := make([]models.Temple, 0, len(r.s.temples))
	for _, t := range r.s.temples {
		temples = append(temples, t)
	}
	// ObjectIDs embed their creation second and a counter, so this is insertion order
	sort.Slice(temples, func(i, j int) bool { return temples[i].ID.Hex() < temples[j].ID.Hex() })
	return temples, nil
}

func (r memTemples) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Temple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.temples[id]
	if !ok {
		return nil, fmt.Errorf("find temple: %w", ErrNotFound)
	}
	return &t, nil
}

func (r memTemples) UpdateCrowdLevel(ctx context.Context, id primitive.ObjectID, level models.CrowdLevel) (*models.Temple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !level.Valid() {
		return nil, &models.ValidationError{Field: "crowdLevel", Msg: "must be one of Low, Medium, High, Very High"}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.temples[id]
	if !ok {
		return nil, fmt.Errorf("find temple: %w", ErrNotFound)
	}
	t.CurrentCrowdLevel = level
	t.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	r.s.temples[id] = t
	return &t, nil
}

func (r memTemples) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.temples)), nil
}

// ---------- bookings ----------

type memBookings struct{ s *MemoryStore }

func (r memBookings) Create(ctx context.Context, b *models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.ApplyDefaults()
	if err := b.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.bookings {
		if existing.QRCode == b.QRCode {
			return fmt.Errorf("insert booking: %w", ErrDuplicate)
		}
	}
	b.ID = primitive.NewObjectID()
	stamp(&b.CreatedAt, &b.UpdatedAt)
	r.s.bookings[b.ID] = *b
	return nil
}

func (r memBookings) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("find booking: %w", ErrNotFound)
	}
	return &b, nil
}

func (r memBookings) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.BookingWithTemple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.BookingWithTemple{}
	for _, b := range r.s.bookings {
		if b.User != userID {
			continue
		}
		row := models.BookingWithTemple{
			ID:        b.ID,
			User:      b.User,
			SlotTime:  b.SlotTime,
			Status:    b.Status,
			QRCode:    b.QRCode,
			CreatedAt: b.CreatedAt,
			UpdatedAt: b.UpdatedAt,
		}
		if t, ok := r.s.temples[b.Temple]; ok {
			row.Temple = &models.TempleSummary{ID: t.ID, Name: t.Name, Location: t.Location}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

// ---------- crowd samples ----------

type memCrowdSamples struct{ s *MemoryStore }

func (r memCrowdSamples) Create(ctx context.Context, c *models.CrowdSample) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = primitive.NewObjectID()
	stamp(&c.CreatedAt, &c.UpdatedAt)
	r.s.samples[c.ID] = *c
	return nil
}

// ---------- alerts ----------

type memAlerts struct{ s *MemoryStore }

func (r memAlerts) Create(ctx context.Context, a *models.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.ApplyDefaults()
	if err := a.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a.ID = primitive.NewObjectID()
	stamp(&a.CreatedAt, &a.UpdatedAt)
	stored := *a
	if a.User != nil {
		uid := *a.User
		stored.User = &uid
	}
	r.s.alerts[a.ID] = stored
	return nil
}
