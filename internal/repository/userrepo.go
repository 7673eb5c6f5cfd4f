// Package repository defines the stub API's storage interfaces, implemented by
// in-memory backends.
package repository

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/citasmart/citasmart-go/internal/model"
)

// Account is a server-side user record. The password is stored only as an
// Argon2id hash with a per-account salt.
type Account struct {
	User      model.User
	PwdHash   []byte
	Salt      []byte
	CreatedAt time.Time
}

// UserRepository provides account lookup and creation.
type UserRepository interface {
	// Create inserts a new account; ErrAlreadyExists on duplicate email.
	Create(ctx context.Context, a *Account) error
	// GetByEmail loads an account by email.
	GetByEmail(ctx context.Context, email string) (*Account, error)
	// GetByID loads an account by user ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
}

// RefreshTokenRepository tracks issued refresh tokens. Tokens are single-use:
// Redeem returns the owner and invalidates the token (rotation).
type RefreshTokenRepository interface {
	Save(ctx context.Context, token string, userID uuid.UUID) error
	Redeem(ctx context.Context, token string) (uuid.UUID, error)
}
