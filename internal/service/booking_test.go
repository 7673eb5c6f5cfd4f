package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/citasmart/citasmart-go/internal/errs"
	"github.com/citasmart/citasmart-go/internal/model"
	"github.com/citasmart/citasmart-go/internal/repository"
	"github.com/citasmart/citasmart-go/internal/repository/memory"
)

func newBooking(t *testing.T) (*BookingServiceImpl, model.Service, model.Professional, uuid.UUID) {
	t.Helper()
	svc := model.Service{ID: uuid.Must(uuid.NewV4()), Name: "Corte", DurationMin: 30, PriceCents: 1500}
	pro := model.Professional{ID: uuid.Must(uuid.NewV4()), FirstName: "Luis", LastName: "M"}
	bookings := memory.NewBookings([]model.Service{svc}, []model.Professional{pro})

	users := memory.NewUsers()
	uid := uuid.Must(uuid.NewV4())
	_ = users.Create(context.Background(), &repository.Account{User: model.User{ID: uid, Email: "a@b.com"}})

	return NewBookingService(bookings, users), svc, pro, uid
}

func TestBooking_BookAndList(t *testing.T) {
	t.Parallel()
	s, svc, pro, uid := newBooking(t)
	start := time.Now().Add(24 * time.Hour)

	a, err := s.Book(context.Background(), uid, BookingRequest{ServiceID: svc.ID, ProfessionalID: pro.ID, StartTime: start})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if a.Status != model.AppointmentConfirmed || a.DurationMin != svc.DurationMin {
		t.Fatalf("bad appointment: %+v", a)
	}

	list, err := s.Appointments(context.Background(), uid)
	if err != nil || len(list) != 1 {
		t.Fatalf("Appointments: %v %v", list, err)
	}
}

func TestBooking_SlotConflict(t *testing.T) {
	t.Parallel()
	s, svc, pro, uid := newBooking(t)
	start := time.Now().Add(24 * time.Hour)

	if _, err := s.Book(context.Background(), uid, BookingRequest{ServiceID: svc.ID, ProfessionalID: pro.ID, StartTime: start}); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	// Overlapping slot for the same professional.
	_, err := s.Book(context.Background(), uid, BookingRequest{ServiceID: svc.ID, ProfessionalID: pro.ID, StartTime: start.Add(10 * time.Minute)})
	if !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on overlap, got %v", err)
	}
	// Adjacent slot is fine.
	if _, err := s.Book(context.Background(), uid, BookingRequest{ServiceID: svc.ID, ProfessionalID: pro.ID, StartTime: start.Add(30 * time.Minute)}); err != nil {
		t.Fatalf("adjacent booking: %v", err)
	}
}

func TestBooking_Validation(t *testing.T) {
	t.Parallel()
	s, svc, pro, uid := newBooking(t)

	if _, err := s.Book(context.Background(), uuid.Nil, BookingRequest{}); err == nil {
		t.Fatalf("want validation error on nil user")
	}
	if _, err := s.Book(context.Background(), uid, BookingRequest{ServiceID: svc.ID, ProfessionalID: pro.ID, StartTime: time.Now().Add(-time.Hour)}); err == nil {
		t.Fatalf("want validation error on past start")
	}
	ghost := uuid.Must(uuid.NewV4())
	if _, err := s.Book(context.Background(), uid, BookingRequest{ServiceID: ghost, ProfessionalID: pro.ID, StartTime: time.Now().Add(time.Hour)}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown service, got %v", err)
	}
}

func TestBooking_CancelOwnership(t *testing.T) {
	t.Parallel()
	s, svc, pro, uid := newBooking(t)
	a, err := s.Book(context.Background(), uid, BookingRequest{ServiceID: svc.ID, ProfessionalID: pro.ID, StartTime: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	other := uuid.Must(uuid.NewV4())
	if _, err := s.Cancel(context.Background(), other, a.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign appointment, got %v", err)
	}

	got, err := s.Cancel(context.Background(), uid, a.ID)
	if err != nil || got.Status != model.AppointmentCancelled {
		t.Fatalf("Cancel: %+v %v", got, err)
	}
}

func TestBooking_ProfileAndCatalog(t *testing.T) {
	t.Parallel()
	s, _, _, uid := newBooking(t)

	u, err := s.Profile(context.Background(), uid)
	if err != nil || u.Email != "a@b.com" {
		t.Fatalf("Profile: %+v %v", u, err)
	}
	if svcs, _ := s.Services(context.Background()); len(svcs) != 1 {
		t.Fatalf("Services: %v", svcs)
	}
	if pros, _ := s.Professionals(context.Background()); len(pros) != 1 {
		t.Fatalf("Professionals: %v", pros)
	}
}
