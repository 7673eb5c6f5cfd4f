package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/citasmart/citasmart-go/internal/errs"
	"github.com/citasmart/citasmart-go/internal/limiter"
	"github.com/citasmart/citasmart-go/internal/model"
	"github.com/citasmart/citasmart-go/internal/repository/memory"
)

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, nil
}

func newAuth(lim limiter.Limiter) (*AuthServiceImpl, *memory.Users) {
	users := memory.NewUsers()
	return NewAuthService(users, memory.NewRefreshTokens(), lim, []byte("test-key"), 15*time.Minute), users
}

func TestAuth_Register_Basics(t *testing.T) {
	t.Parallel()
	s, _ := newAuth(&fakeLimiter{allowOK: true})

	if _, err := s.Register(context.Background(), model.Registration{}); err == nil {
		t.Fatalf("want validation error on empty registration")
	}

	u, err := s.Register(context.Background(), model.Registration{Email: "a@b.com", Password: "pw", FirstName: "Ana"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID.IsNil() || u.Roles[0] != "USER" {
		t.Fatalf("bad user: %+v", u)
	}

	if _, err := s.Register(context.Background(), model.Registration{Email: "a@b.com", Password: "pw2"}); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on duplicate email, got %v", err)
	}
}

func TestAuth_Login_RateLimiterAndCreds(t *testing.T) {
	t.Parallel()
	lim := &fakeLimiter{allowOK: true}
	s, _ := newAuth(lim)
	if _, err := s.Register(context.Background(), model.Registration{Email: "a@b.com", Password: "correct"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	lim.allowErr = errors.New("lim-err")
	if _, err := s.LoginWithIP(context.Background(), model.Credentials{Email: "a@b.com", Password: "correct"}, "1.2.3.4"); err == nil {
		t.Fatalf("want limiter error propagate")
	}
	lim.allowErr = nil

	lim.allowOK = false
	if _, err := s.LoginWithIP(context.Background(), model.Credentials{Email: "a@b.com", Password: "correct"}, "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
	lim.allowOK = true

	if _, err := s.LoginWithIP(context.Background(), model.Credentials{Email: "nope@b.com", Password: "x"}, ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on missing user, got %v", err)
	}

	lim.failBlocked = true
	if _, err := s.LoginWithIP(context.Background(), model.Credentials{Email: "a@b.com", Password: "wrong"}, ""); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited when block triggers, got %v", err)
	}
	lim.failBlocked = false

	if _, err := s.LoginWithIP(context.Background(), model.Credentials{Email: "a@b.com", Password: "wrong"}, ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on wrong password, got %v", err)
	}

	sess, err := s.LoginWithIP(context.Background(), model.Credentials{Email: "a@b.com", Password: "correct"}, "127.0.0.1:123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" || sess.ExpiresIn != int64((15*time.Minute).Seconds()) {
		t.Fatalf("bad session: %+v", sess)
	}
	if sess.User.Email != "a@b.com" {
		t.Fatalf("bad user in session: %+v", sess.User)
	}
	if lim.successCalls == 0 {
		t.Fatalf("expected Success() to be called")
	}

	claims, err := ParseAccessToken(sess.AccessToken, []byte("test-key"))
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Email != "a@b.com" || claims.Subject != sess.User.ID.String() {
		t.Fatalf("bad claims: %+v", claims)
	}
}

func TestAuth_Refresh_RotatesToken(t *testing.T) {
	t.Parallel()
	s, _ := newAuth(&fakeLimiter{allowOK: true})
	_, _ = s.Register(context.Background(), model.Registration{Email: "a@b.com", Password: "pw"})
	first, err := s.LoginWithIP(context.Background(), model.Credentials{Email: "a@b.com", Password: "pw"}, "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := s.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}

	// Old token is single-use.
	if _, err := s.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on reuse, got %v", err)
	}
	if _, err := s.Refresh(context.Background(), ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on empty token, got %v", err)
	}
}

func TestParseAccessToken_RejectsBadSignature(t *testing.T) {
	t.Parallel()
	s, _ := newAuth(&fakeLimiter{allowOK: true})
	_, _ = s.Register(context.Background(), model.Registration{Email: "a@b.com", Password: "pw"})
	sess, _ := s.LoginWithIP(context.Background(), model.Credentials{Email: "a@b.com", Password: "pw"}, "")

	if _, err := ParseAccessToken(sess.AccessToken, []byte("other-key")); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on wrong key, got %v", err)
	}
}
