package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/citasmart/citasmart-go/internal/model"
	"github.com/citasmart/citasmart-go/internal/repository"
)

// BookingRequest is the create-appointment intent.
type BookingRequest struct {
	ServiceID      uuid.UUID `json:"serviceId"`
	ProfessionalID uuid.UUID `json:"professionalId"`
	StartTime      time.Time `json:"startTime"`
	Notes          string    `json:"notes,omitempty"`
}

// BookingService defines the appointment and catalog operations of the stub API.
type BookingService interface {
	// Appointments lists a user's appointments.
	Appointments(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error)
	// Book creates a confirmed appointment after slot validation.
	Book(ctx context.Context, userID uuid.UUID, req BookingRequest) (model.Appointment, error)
	// Cancel marks an appointment cancelled.
	Cancel(ctx context.Context, userID, id uuid.UUID) (model.Appointment, error)
	// Services lists the bookable catalog.
	Services(ctx context.Context) ([]model.Service, error)
	// Professionals lists providers.
	Professionals(ctx context.Context) ([]model.Professional, error)
	// Profile returns the account's user snapshot.
	Profile(ctx context.Context, userID uuid.UUID) (model.User, error)
}

type BookingServiceImpl struct {
	bookings repository.BookingRepository
	users    repository.UserRepository
}

// NewBookingService constructs BookingService.
func NewBookingService(bookings repository.BookingRepository, users repository.UserRepository) *BookingServiceImpl {
	return &BookingServiceImpl{bookings: bookings, users: users}
}

func (s *BookingServiceImpl) Appointments(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	return s.bookings.ListAppointments(ctx, userID)
}

// Book validates the slot and stores a confirmed appointment. Duration comes
// from the service catalog.
func (s *BookingServiceImpl) Book(ctx context.Context, userID uuid.UUID, req BookingRequest) (model.Appointment, error) {
	if userID == uuid.Nil {
		return model.Appointment{}, errors.New("validation: empty userID")
	}
	if req.ServiceID == uuid.Nil || req.ProfessionalID == uuid.Nil {
		return model.Appointment{}, errors.New("validation: serviceId/professionalId required")
	}
	if !req.StartTime.After(time.Now()) {
		return model.Appointment{}, errors.New("validation: startTime must be in the future")
	}
	svc, err := s.bookings.GetService(ctx, req.ServiceID)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("service: %w", err)
	}
	if _, err := s.bookings.GetProfessional(ctx, req.ProfessionalID); err != nil {
		return model.Appointment{}, fmt.Errorf("professional: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return model.Appointment{}, err
	}
	a := model.Appointment{
		ID:             id,
		UserID:         userID,
		ServiceID:      req.ServiceID,
		ProfessionalID: req.ProfessionalID,
		StartTime:      req.StartTime,
		DurationMin:    svc.DurationMin,
		Status:         model.AppointmentConfirmed,
		Notes:          req.Notes,
	}
	if err := s.bookings.CreateAppointment(ctx, &a); err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

func (s *BookingServiceImpl) Cancel(ctx context.Context, userID, id uuid.UUID) (model.Appointment, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return model.Appointment{}, errors.New("validation: empty userID/id")
	}
	return s.bookings.CancelAppointment(ctx, userID, id)
}

func (s *BookingServiceImpl) Services(ctx context.Context) ([]model.Service, error) {
	return s.bookings.ListServices(ctx)
}

func (s *BookingServiceImpl) Professionals(ctx context.Context) ([]model.Professional, error) {
	return s.bookings.ListProfessionals(ctx)
}

func (s *BookingServiceImpl) Profile(ctx context.Context, userID uuid.UUID) (model.User, error) {
	a, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	return a.User, nil
}
