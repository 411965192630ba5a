// Package memory provides map-backed repositories with the same semantics as
// the Postgres ones. Tests use it in place of a database.
package memory

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/diagnosis/bnb-marketplace/internal/domain"
	"github.com/diagnosis/bnb-marketplace/internal/repository"
	"github.com/google/uuid"
)

// Store holds every table. Repositories built from the same Store see each other's rows.
type Store struct {
	mu          sync.Mutex
	users       map[string]*domain.User
	properties  map[string]*domain.Property
	bookings    map[string]*domain.Booking
	idempotency map[string]string
	clock       time.Time
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]*domain.User),
		properties:  make(map[string]*domain.Property),
		bookings:    make(map[string]*domain.Booking),
		idempotency: make(map[string]string),
		clock:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so created_at ordering is stable.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) Users() repository.UserRepository              { return &users{s} }
func (s *Store) Properties() repository.PropertyRepository     { return &properties{s} }
func (s *Store) Bookings() repository.BookingRepository        { return &bookings{s} }
func (s *Store) Idempotency() repository.IdempotencyRepository { return &idempotency{s} }

// ---------- users ----------

type users struct{ s *Store }

func (r *users) Create(_ context.Context, email, passwordHash, name string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return nil, repository.ErrEmailTaken
		}
	}
	var profileName *string
	if name != "" {
		profileName = &name
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    r.s.tick(),
		Profile:      &domain.Profile{Name: profileName},
	}
	r.s.users[u.ID] = u
	return copyUser(u), nil
}

func (r *users) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *users) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (r *users) UpdateProfile(_ context.Context, id string, req domain.ProfileUpdateRequest) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.Profile == nil {
		return nil, nil
	}
	if req.Name != nil {
		u.Profile.Name = req.Name
	}
	if req.Bio != nil {
		u.Profile.Bio = req.Bio
	}
	p := *u.Profile
	return &p, nil
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	if u.Profile != nil {
		p := *u.Profile
		c.Profile = &p
	}
	return &c
}

// ---------- properties ----------

type properties struct{ s *Store }

func (r *properties) Search(_ context.Context, q domain.PropertyQuery) ([]domain.PropertySummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	needle := strings.ToLower(q.Destination)
	all := r.s.sortedProperties()
	out := []domain.PropertySummary{}
	for _, p := range all {
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Location), needle) {
			continue
		}
		out = append(out, p.Summary())
	}

	if q.Offset >= len(out) {
		return []domain.PropertySummary{}, nil
	}
	out = out[q.Offset:]
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *properties) ListByOwner(_ context.Context, ownerID string) ([]domain.PropertySummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.PropertySummary{}
	for _, p := range r.s.sortedProperties() {
		if p.UserID == ownerID {
			out = append(out, p.Summary())
		}
	}
	return out, nil
}

func (r *properties) GetByID(_ context.Context, id string) (*domain.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.properties[id]; ok {
		c := copyProperty(p)
		return &c, nil
	}
	return nil, nil
}

func (r *properties) Create(_ context.Context, ownerID string, in domain.PropertyInput) (*domain.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := &domain.Property{
		ID:            uuid.NewString(),
		UserID:        ownerID,
		Name:          in.Name,
		Description:   in.Description,
		Location:      in.Location,
		PricePerNight: in.PricePerNight,
		Available:     in.IsAvailable(),
		ImageURLs:     domain.NormalizeImageURLs(in.ImageURLs),
		CreatedAt:     r.s.tick(),
	}
	r.s.properties[p.ID] = p
	c := copyProperty(p)
	return &c, nil
}

func (r *properties) Update(_ context.Context, id string, in domain.PropertyInput) (*domain.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.properties[id]
	if !ok {
		return nil, nil
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Location = in.Location
	p.PricePerNight = in.PricePerNight
	p.Available = in.IsAvailable()
	p.ImageURLs = domain.NormalizeImageURLs(in.ImageURLs)
	c := copyProperty(p)
	return &c, nil
}

// Delete detaches bookings from the property, like ON DELETE SET NULL.
func (r *properties) Delete(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.properties[id]; !ok {
		return false, nil
	}
	delete(r.s.properties, id)
	for _, b := range r.s.bookings {
		if b.PropertyID != nil && *b.PropertyID == id {
			b.PropertyID = nil
		}
	}
	return true, nil
}

func (s *Store) sortedProperties() []*domain.Property {
	out := make([]*domain.Property, 0, len(s.properties))
	for _, p := range s.properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func copyProperty(p *domain.Property) domain.Property {
	c := *p
	c.ImageURLs = append(domain.ImageURLs{}, p.ImageURLs...)
	return c
}

// ---------- bookings ----------

type bookings struct{ s *Store }

func (r *bookings) Create(_ context.Context, renterID, propertyID, checkIn, checkOut string, totalPrice float64) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.properties[propertyID]; !ok {
		return nil, domain.Invalid("property not found")
	}
	pid := propertyID
	b := &domain.Booking{
		ID:           uuid.NewString(),
		UserID:       renterID,
		PropertyID:   &pid,
		CheckInDate:  checkIn,
		CheckOutDate: checkOut,
		TotalPrice:   totalPrice,
		Status:       domain.BookingPending,
		CreatedAt:    r.s.tick(),
	}
	r.s.bookings[b.ID] = b
	return copyBooking(b), nil
}

func (r *bookings) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b, ok := r.s.bookings[id]; ok {
		return copyBooking(b), nil
	}
	return nil, nil
}

func (r *bookings) ListByRenter(_ context.Context, renterID string) ([]domain.BookingWithProperty, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(b *domain.Booking, p *domain.Property) bool {
		return b.UserID == renterID
	}), nil
}

func (r *bookings) ListByHost(_ context.Context, hostID string) ([]domain.BookingWithProperty, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(b *domain.Booking, p *domain.Property) bool {
		return p != nil && p.UserID == hostID
	}), nil
}

func (r *bookings) list(match func(*domain.Booking, *domain.Property) bool) []domain.BookingWithProperty {
	all := make([]*domain.Booking, 0, len(r.s.bookings))
	for _, b := range r.s.bookings {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	out := []domain.BookingWithProperty{}
	for _, b := range all {
		var p *domain.Property
		if b.PropertyID != nil {
			p = r.s.properties[*b.PropertyID]
		}
		if !match(b, p) {
			continue
		}
		row := domain.BookingWithProperty{Booking: *copyBooking(b)}
		if p != nil {
			row.Properties = &domain.BookingProperty{
				ID: p.ID, Name: p.Name, Location: p.Location,
				ImageURLs: domain.NormalizeImageURLs(p.ImageURLs),
			}
		}
		out = append(out, row)
	}
	return out
}

func (r *bookings) UpdateDates(_ context.Context, id, renterID string, patch domain.BookingPatch) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok || !b.IsRenter(renterID) {
		return nil, nil
	}

	checkIn, checkOut := b.CheckInDate, b.CheckOutDate
	if patch.CheckInDate != nil {
		checkIn = *patch.CheckInDate
	}
	if patch.CheckOutDate != nil {
		checkOut = *patch.CheckOutDate
	}
	nights, err := domain.Nights(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	b.CheckInDate, b.CheckOutDate = checkIn, checkOut
	if b.PropertyID != nil {
		if p, ok := r.s.properties[*b.PropertyID]; ok {
			b.TotalPrice = domain.TotalPrice(p.PricePerNight, nights)
		}
	}
	return copyBooking(b), nil
}

func (r *bookings) UpdateStatus(_ context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := domain.ParseBookingStatus(string(status)); !ok {
		return nil, domain.ErrInvalidStatus
	}
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	b.Status = status
	return copyBooking(b), nil
}

func (r *bookings) Delete(_ context.Context, id, renterID string) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok || !b.IsRenter(renterID) {
		return nil, nil
	}
	delete(r.s.bookings, id)
	for k, v := range r.s.idempotency {
		if v == id {
			delete(r.s.idempotency, k)
		}
	}
	return copyBooking(b), nil
}

func copyBooking(b *domain.Booking) *domain.Booking {
	c := *b
	if b.PropertyID != nil {
		pid := *b.PropertyID
		c.PropertyID = &pid
	}
	return &c
}

// ---------- idempotency ----------

type idempotency struct{ s *Store }

func hashKey(userID, key string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(userID+":"+key)))
}

func (r *idempotency) Lookup(_ context.Context, userID, key string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.idempotency[hashKey(userID, key)], nil
}

func (r *idempotency) Remember(_ context.Context, userID, key, bookingID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h := hashKey(userID, key)
	if _, exists := r.s.idempotency[h]; !exists {
		r.s.idempotency[h] = bookingID
	}
	return nil
}

func (r *idempotency) CleanupExpired(context.Context) (int64, error) { return 0, nil }
