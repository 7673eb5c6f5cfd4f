// Command stubapi runs a local CitaSmart API stub for development and
// end-to-end testing of the client.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/citasmart/citasmart-go/internal/limiter"
	"github.com/citasmart/citasmart-go/internal/model"
	"github.com/citasmart/citasmart-go/internal/repository/memory"
	"github.com/citasmart/citasmart-go/internal/server/httpapi"
	"github.com/citasmart/citasmart-go/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// seedCatalog provides a small fixed catalog so a fresh stub is bookable.
func seedCatalog() ([]model.Service, []model.Professional) {
	corte := model.Service{ID: uuid.Must(uuid.NewV4()), Name: "Corte de pelo", DurationMin: 30, PriceCents: 1500}
	masaje := model.Service{ID: uuid.Must(uuid.NewV4()), Name: "Masaje", DurationMin: 60, PriceCents: 4500}
	pros := []model.Professional{
		{ID: uuid.Must(uuid.NewV4()), FirstName: "Luis", LastName: "Martínez", Speciality: "Peluquería", ServiceIDs: []uuid.UUID{corte.ID}},
		{ID: uuid.Must(uuid.NewV4()), FirstName: "Carla", LastName: "Ruiz", Speciality: "Fisioterapia", ServiceIDs: []uuid.UUID{masaje.ID}},
	}
	return []model.Service{corte, masaje}, pros
}

// main parses configuration and starts the stub HTTP server.
func main() {
	addr := flag.String("addr", ":8085", "listen address")
	jwtKey := flag.String("jwt-key", "", "HS256 signing key (required)")
	accessTTL := flag.Duration("access-ttl", 15*time.Minute, "access token TTL")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting stubapi",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	if *jwtKey == "" {
		logger.Fatal("missing jwt signing key (--jwt-key)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users := memory.NewUsers()
	tokens := memory.NewRefreshTokens()
	services, professionals := seedCatalog()
	bookings := memory.NewBookings(services, professionals)

	lim := limiter.NewMemory(15*time.Minute, 5, 15*time.Minute)
	authSvc := service.NewAuthService(users, tokens, lim, []byte(*jwtKey), *accessTTL)
	bookingSvc := service.NewBookingService(bookings, users)

	api := httpapi.New(authSvc, bookingSvc, []byte(*jwtKey), logger)
	srv := &http.Server{Addr: *addr, Handler: api.Router()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
