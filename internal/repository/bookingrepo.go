package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/citasmart/citasmart-go/internal/model"
)

// BookingRepository provides appointments and the bookable catalog.
type BookingRepository interface {
	// ListAppointments returns a user's appointments ordered by start time.
	ListAppointments(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error)
	// CreateAppointment stores a new appointment; ErrAlreadyExists when the
	// professional's slot is taken.
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	// CancelAppointment marks an appointment cancelled; ErrNotFound when it
	// does not exist or belongs to another user.
	CancelAppointment(ctx context.Context, userID, id uuid.UUID) (model.Appointment, error)
	// ListServices returns the service catalog.
	ListServices(ctx context.Context) ([]model.Service, error)
	// ListProfessionals returns the provider catalog.
	ListProfessionals(ctx context.Context) ([]model.Professional, error)
	// GetService loads one catalog entry.
	GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
	// GetProfessional loads one provider.
	GetProfessional(ctx context.Context, id uuid.UUID) (*model.Professional, error)
}
