package limiter

import (
	"context"
	"testing"
	"time"
)

func TestMemory_BlocksAfterMaxFails(t *testing.T) {
	t.Parallel()
	m := NewMemory(time.Minute, 3, 5*time.Minute)
	base := time.Now()
	m.now = func() time.Time { return base }
	ip := HashIP("1.2.3.4")
	ctx := context.Background()

	if ok, _, _ := m.Allow(ctx, "a@b.com", ip); !ok {
		t.Fatalf("fresh key must be allowed")
	}
	for i := 0; i < 2; i++ {
		if blocked, _, _ := m.Failure(ctx, "a@b.com", ip); blocked {
			t.Fatalf("blocked too early at fail %d", i+1)
		}
	}
	blocked, retry, _ := m.Failure(ctx, "a@b.com", ip)
	if !blocked || retry != 5*time.Minute {
		t.Fatalf("want block on third failure, got blocked=%v retry=%v", blocked, retry)
	}
	if ok, _, _ := m.Allow(ctx, "a@b.com", ip); ok {
		t.Fatalf("want blocked")
	}

	// Block expires.
	m.now = func() time.Time { return base.Add(6 * time.Minute) }
	if ok, _, _ := m.Allow(ctx, "a@b.com", ip); !ok {
		t.Fatalf("want allowed after block expiry")
	}
}

func TestMemory_SuccessResets(t *testing.T) {
	t.Parallel()
	m := NewMemory(time.Minute, 2, time.Minute)
	ip := HashIP("1.2.3.4")
	ctx := context.Background()

	_, _, _ = m.Failure(ctx, "a@b.com", ip)
	_ = m.Success(ctx, "a@b.com", ip)
	if blocked, _, _ := m.Failure(ctx, "a@b.com", ip); blocked {
		t.Fatalf("counter not reset by success")
	}
}

func TestMemory_WindowExpiryResetsCount(t *testing.T) {
	t.Parallel()
	m := NewMemory(time.Minute, 2, time.Minute)
	base := time.Now()
	m.now = func() time.Time { return base }
	ip := HashIP("ip")
	ctx := context.Background()

	_, _, _ = m.Failure(ctx, "a@b.com", ip)
	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	if blocked, _, _ := m.Failure(ctx, "a@b.com", ip); blocked {
		t.Fatalf("stale window counted toward block")
	}
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	t.Parallel()
	m := NewMemory(time.Minute, 1, time.Minute)
	ctx := context.Background()

	if blocked, _, _ := m.Failure(ctx, "a@b.com", HashIP("1.1.1.1")); !blocked {
		t.Fatalf("want immediate block with maxFails=1")
	}
	if ok, _, _ := m.Allow(ctx, "a@b.com", HashIP("2.2.2.2")); !ok {
		t.Fatalf("other ip must be unaffected")
	}
	if ok, _, _ := m.Allow(ctx, "c@d.com", HashIP("1.1.1.1")); !ok {
		t.Fatalf("other email must be unaffected")
	}
}
