// Package memory implements the stub API repositories with in-process maps.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/citasmart/citasmart-go/internal/errs"
	"github.com/citasmart/citasmart-go/internal/model"
	"github.com/citasmart/citasmart-go/internal/repository"
)

// Users implements repository.UserRepository.
type Users struct {
	mu      sync.RWMutex
	byEmail map[string]*repository.Account
}

var _ repository.UserRepository = (*Users)(nil)

// NewUsers returns an empty user repository.
func NewUsers() *Users {
	return &Users{byEmail: make(map[string]*repository.Account)}
}

func (r *Users) Create(_ context.Context, a *repository.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(a.User.Email)
	if _, exists := r.byEmail[email]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *a
	cpy.CreatedAt = time.Now()
	r.byEmail[email] = &cpy
	return nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*repository.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := *a
	return &cpy, nil
}

func (r *Users) GetByID(_ context.Context, id uuid.UUID) (*repository.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.byEmail {
		if a.User.ID == id {
			cpy := *a
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

// RefreshTokens implements repository.RefreshTokenRepository with single-use
// tokens.
type RefreshTokens struct {
	mu     sync.Mutex
	owners map[string]uuid.UUID
}

var _ repository.RefreshTokenRepository = (*RefreshTokens)(nil)

// NewRefreshTokens returns an empty token repository.
func NewRefreshTokens() *RefreshTokens {
	return &RefreshTokens{owners: make(map[string]uuid.UUID)}
}

func (r *RefreshTokens) Save(_ context.Context, token string, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[token] = userID
	return nil
}

func (r *RefreshTokens) Redeem(_ context.Context, token string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[token]
	if !ok {
		return uuid.Nil, errs.ErrUnauthorized
	}
	delete(r.owners, token)
	return owner, nil
}

// Bookings implements repository.BookingRepository over a seeded catalog.
type Bookings struct {
	mu            sync.RWMutex
	appointments  map[uuid.UUID]*model.Appointment
	services      []model.Service
	professionals []model.Professional
}

var _ repository.BookingRepository = (*Bookings)(nil)

// NewBookings returns a booking repository with the given catalog.
func NewBookings(services []model.Service, professionals []model.Professional) *Bookings {
	return &Bookings{
		appointments:  make(map[uuid.UUID]*model.Appointment),
		services:      services,
		professionals: professionals,
	}
}

func (r *Bookings) ListAppointments(_ context.Context, userID uuid.UUID) ([]model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Appointment
	for _, a := range r.appointments {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *Bookings) CreateAppointment(_ context.Context, a *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	end := a.StartTime.Add(time.Duration(a.DurationMin) * time.Minute)
	for _, existing := range r.appointments {
		if existing.ProfessionalID != a.ProfessionalID || existing.Status == model.AppointmentCancelled {
			continue
		}
		exEnd := existing.StartTime.Add(time.Duration(existing.DurationMin) * time.Minute)
		if a.StartTime.Before(exEnd) && existing.StartTime.Before(end) {
			return errs.ErrAlreadyExists
		}
	}
	cpy := *a
	r.appointments[a.ID] = &cpy
	return nil
}

func (r *Bookings) CancelAppointment(_ context.Context, userID, id uuid.UUID) (model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.UserID != userID {
		return model.Appointment{}, errs.ErrNotFound
	}
	a.Status = model.AppointmentCancelled
	return *a, nil
}

func (r *Bookings) ListServices(_ context.Context) ([]model.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Service(nil), r.services...), nil
}

func (r *Bookings) ListProfessionals(_ context.Context) ([]model.Professional, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Professional(nil), r.professionals...), nil
}

func (r *Bookings) GetService(_ context.Context, id uuid.UUID) (*model.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.services {
		if r.services[i].ID == id {
			cpy := r.services[i]
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *Bookings) GetProfessional(_ context.Context, id uuid.UUID) (*model.Professional, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.professionals {
		if r.professionals[i].ID == id {
			cpy := r.professionals[i]
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}
