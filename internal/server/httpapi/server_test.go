package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/citasmart/citasmart-go/internal/cache"
	"github.com/citasmart/citasmart-go/internal/client"
	"github.com/citasmart/citasmart-go/internal/limiter"
	"github.com/citasmart/citasmart-go/internal/model"
	"github.com/citasmart/citasmart-go/internal/netmon"
	"github.com/citasmart/citasmart-go/internal/repository/memory"
	"github.com/citasmart/citasmart-go/internal/service"
	"github.com/citasmart/citasmart-go/internal/session"
	"github.com/citasmart/citasmart-go/internal/storage"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	users := memory.NewUsers()
	svc := model.Service{ID: uuid.Must(uuid.NewV4()), Name: "Corte", DurationMin: 30}
	pro := model.Professional{ID: uuid.Must(uuid.NewV4()), FirstName: "Luis"}
	bookings := memory.NewBookings([]model.Service{svc}, []model.Professional{pro})

	auth := service.NewAuthService(users, memory.NewRefreshTokens(), limiter.NewMemory(time.Minute, 5, time.Minute), []byte("test-key"), 15*time.Minute)
	booking := service.NewBookingService(bookings, users)

	srv := httptest.NewServer(New(auth, booking, []byte("test-key"), nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

// End-to-end: the real client pipeline and session manager against the stub API.
func TestAPI_FullClientFlow(t *testing.T) {
	t.Parallel()
	srv := newTestAPI(t)

	st := storage.NewMemory()
	mon := netmon.New(true, nil, nil)
	ca := cache.New(st, nil)
	cl := client.New(srv.URL, st, ca, mon, nil, nil, client.WithHTTPClient(srv.Client()))
	mgr := session.New(st, cl, nil)

	ctx := context.Background()
	if _, err := mgr.Register(ctx, model.Registration{Email: "a@b.com", Password: "secret", FirstName: "Ana"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if mgr.IsAuthenticated() {
		t.Fatalf("register must not authenticate")
	}

	sess, err := mgr.Login(ctx, model.Credentials{Email: "a@b.com", Password: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !mgr.IsAuthenticated() || mgr.CurrentUser().Email != "a@b.com" {
		t.Fatalf("session not established")
	}

	// Authenticated, cacheable GET.
	raw, err := cl.Execute(ctx, "GET", "/profile", nil)
	if err != nil {
		t.Fatalf("GET /profile: %v", err)
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil || u.Email != "a@b.com" {
		t.Fatalf("profile: %s %v", raw, err)
	}

	// The profile response is now served from cache when offline.
	mon.SetOnline(false)
	if _, err := cl.Execute(ctx, "GET", "/profile", nil); err != nil {
		t.Fatalf("offline cached profile: %v", err)
	}
	mon.SetOnline(true)

	sess2, err := mgr.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if sess2.RefreshToken == sess.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}

	mgr.Logout()
	if mgr.IsAuthenticated() {
		t.Fatalf("still authenticated after logout")
	}
}

func TestAPI_LoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	srv := newTestAPI(t)

	st := storage.NewMemory()
	cl := client.New(srv.URL, st, cache.New(st, nil), netmon.New(true, nil, nil), nil, nil, client.WithHTTPClient(srv.Client()))
	mgr := session.New(st, cl, nil)

	ctx := context.Background()
	if _, err := mgr.Register(ctx, model.Registration{Email: "a@b.com", Password: "secret"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := mgr.Login(ctx, model.Credentials{Email: "a@b.com", Password: "wrong"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 401 {
		t.Fatalf("want 401 APIError verbatim, got %v", err)
	}
	if mgr.IsAuthenticated() {
		t.Fatalf("failed login must not authenticate")
	}
}

func TestAPI_ProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()
	srv := newTestAPI(t)

	st := storage.NewMemory()
	cl := client.New(srv.URL, st, cache.New(st, nil), netmon.New(true, nil, nil), nil, nil, client.WithHTTPClient(srv.Client()))

	_, err := cl.Execute(context.Background(), "GET", "/appointments", nil)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 401 {
		t.Fatalf("want 401 without token, got %v", err)
	}
}

func TestAPI_BookAndCancel(t *testing.T) {
	t.Parallel()
	srv := newTestAPI(t)

	st := storage.NewMemory()
	cl := client.New(srv.URL, st, cache.New(st, nil), netmon.New(true, nil, nil), nil, nil, client.WithHTTPClient(srv.Client()))
	mgr := session.New(st, cl, nil)
	ctx := context.Background()
	_, _ = mgr.Register(ctx, model.Registration{Email: "a@b.com", Password: "secret"})
	if _, err := mgr.Login(ctx, model.Credentials{Email: "a@b.com", Password: "secret"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	raw, err := cl.Execute(ctx, "GET", "/services", nil)
	if err != nil {
		t.Fatalf("GET /services: %v", err)
	}
	var svcs []model.Service
	_ = json.Unmarshal(raw, &svcs)
	raw, err = cl.Execute(ctx, "GET", "/professionals", nil)
	if err != nil {
		t.Fatalf("GET /professionals: %v", err)
	}
	var pros []model.Professional
	_ = json.Unmarshal(raw, &pros)

	raw, err = cl.Execute(ctx, "POST", "/appointments", service.BookingRequest{
		ServiceID:      svcs[0].ID,
		ProfessionalID: pros[0].ID,
		StartTime:      time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("POST /appointments: %v", err)
	}
	var a model.Appointment
	if err := json.Unmarshal(raw, &a); err != nil || a.Status != model.AppointmentConfirmed {
		t.Fatalf("booking: %s %v", raw, err)
	}

	raw, err = cl.Execute(ctx, "DELETE", "/appointments/"+a.ID.String(), nil)
	if err != nil {
		t.Fatalf("DELETE appointment: %v", err)
	}
	var cancelled model.Appointment
	if err := json.Unmarshal(raw, &cancelled); err != nil || cancelled.Status != model.AppointmentCancelled {
		t.Fatalf("cancel: %s %v", raw, err)
	}
}
