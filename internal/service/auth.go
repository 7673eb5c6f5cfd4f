// Package service contains the stub API's application services for
// authentication and booking.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/citasmart/citasmart-go/internal/crypto"
	"github.com/citasmart/citasmart-go/internal/errs"
	"github.com/citasmart/citasmart-go/internal/limiter"
	"github.com/citasmart/citasmart-go/internal/model"
	"github.com/citasmart/citasmart-go/internal/repository"
)

// AuthService defines authentication operations of the stub API.
type AuthService interface {
	// Register creates a new account with secure password hashing. It does
	// not issue tokens.
	Register(ctx context.Context, reg model.Registration) (model.User, error)
	// LoginWithIP applies rate limiting and authenticates the user.
	LoginWithIP(ctx context.Context, creds model.Credentials, ip string) (model.Session, error)
	// Refresh redeems a single-use refresh token for a new session.
	Refresh(ctx context.Context, refreshToken string) (model.Session, error)
}

// AccessClaims is the JWT payload issued for access tokens.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	tokens    repository.RefreshTokenRepository
	lim       limiter.Limiter
	signKey   []byte
	accessTTL time.Duration
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, tokens repository.RefreshTokenRepository, lim limiter.Limiter, signKey []byte, accessTTL time.Duration) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, tokens: tokens, lim: lim, signKey: signKey, accessTTL: accessTTL}
}

// Register creates a new account with a per-account salt.
func (s *AuthServiceImpl) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	if !strings.Contains(reg.Email, "@") || reg.Password == "" {
		return model.User{}, errors.New("validation: email/password")
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.User{}, err
	}
	salt, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return model.User{}, err
	}
	a := &repository.Account{
		User: model.User{
			ID:        uid,
			Email:     reg.Email,
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
			Phone:     reg.Phone,
			Roles:     []string{"USER"},
		},
		PwdHash: pkgcrypto.HashPassword([]byte(reg.Password), salt),
		Salt:    salt,
	}
	if err := s.users.Create(ctx, a); err != nil {
		return model.User{}, err
	}
	return a.User, nil
}

// LoginWithIP authenticates with rate limiting keyed by (email, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, creds model.Credentials, ip string) (model.Session, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, creds.Email, ipHash)
	if err != nil {
		return model.Session{}, err
	}
	if !allowed {
		return model.Session{}, errs.ErrRateLimited
	}

	a, err := s.users.GetByEmail(ctx, creds.Email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(creds.Password), a.Salt, a.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, creds.Email, ipHash); ferr == nil && blocked {
			return model.Session{}, errs.ErrRateLimited
		}
		// Hide account existence on wrong password or missing user.
		return model.Session{}, errs.ErrUnauthorized
	}

	_ = s.lim.Success(ctx, creds.Email, ipHash)
	return s.issueSession(ctx, a)
}

// Refresh rotates a refresh token into a fresh session.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (model.Session, error) {
	if refreshToken == "" {
		return model.Session{}, errs.ErrUnauthorized
	}
	userID, err := s.tokens.Redeem(ctx, refreshToken)
	if err != nil {
		return model.Session{}, errs.ErrUnauthorized
	}
	a, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.Session{}, errs.ErrUnauthorized
	}
	return s.issueSession(ctx, a)
}

// issueSession signs an HS256 access token and stores a new refresh token.
func (s *AuthServiceImpl) issueSession(ctx context.Context, a *repository.Account) (model.Session, error) {
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.User.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		Email: a.User.Email,
		Roles: a.User.Roles,
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	if err != nil {
		return model.Session{}, fmt.Errorf("sign access token: %w", err)
	}

	rt, err := uuid.NewV4()
	if err != nil {
		return model.Session{}, err
	}
	if err := s.tokens.Save(ctx, rt.String(), a.User.ID); err != nil {
		return model.Session{}, err
	}

	return model.Session{
		AccessToken:  access,
		RefreshToken: rt.String(),
		User:         a.User,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// ParseAccessToken verifies a bearer token and returns its claims.
func ParseAccessToken(token string, signKey []byte) (*AccessClaims, error) {
	var claims AccessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return signKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUnauthorized, err)
	}
	return &claims, nil
}
