// Package model defines domain entities shared by the client, CLI and stub API.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// User is the account snapshot returned by the auth endpoints. The client holds
// it immutably; it is only replaced wholesale by a new session.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone,omitempty"`
	Roles     []string  `json:"roles"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the account creation request body. Registering does not
// establish a session.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}

// Session is the token pair and user snapshot returned by login/refresh.
// ExpiresIn is advisory (seconds); expiry checks decode the token's own claims.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// AuthState is published to session subscribers on every auth transition.
// User is nil when Authenticated is false.
type AuthState struct {
	Authenticated bool
	User          *User
}

// AppointmentStatus enumerates the lifecycle states of a booking.
type AppointmentStatus string

const (
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
)

// Appointment is a single booking of a service with a professional.
type Appointment struct {
	ID             uuid.UUID         `json:"id"`
	UserID         uuid.UUID         `json:"userId"`
	ServiceID      uuid.UUID         `json:"serviceId"`
	ProfessionalID uuid.UUID         `json:"professionalId"`
	StartTime      time.Time         `json:"startTime"`
	DurationMin    int               `json:"durationMinutes"`
	Status         AppointmentStatus `json:"status"`
	Notes          string            `json:"notes,omitempty"`
}

// Service is a bookable service offering.
type Service struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	DurationMin int       `json:"durationMinutes"`
	PriceCents  int64     `json:"priceCents"`
}

// Professional is a provider who can be booked for services.
type Professional struct {
	ID         uuid.UUID   `json:"id"`
	FirstName  string      `json:"firstName"`
	LastName   string      `json:"lastName"`
	Speciality string      `json:"speciality,omitempty"`
	ServiceIDs []uuid.UUID `json:"serviceIds,omitempty"`
}
