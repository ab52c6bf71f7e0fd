package ratelimiter

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	t.Parallel()

	rl := NewFixedWindowLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("1.2.3.4"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, retryAfter := rl.Allow("1.2.3.4")
	if ok {
		t.Fatal("third request should be denied")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Fatalf("unexpected retry-after %s", retryAfter)
	}
}

func TestClientsAreIndependent(t *testing.T) {
	t.Parallel()

	rl := NewFixedWindowLimiter(1, time.Minute)

	if ok, _ := rl.Allow("1.1.1.1"); !ok {
		t.Fatal("first client should be allowed")
	}
	if ok, _ := rl.Allow("2.2.2.2"); !ok {
		t.Fatal("second client must not share the first client's window")
	}
	if ok, _ := rl.Allow("1.1.1.1"); ok {
		t.Fatal("first client should now be over its limit")
	}
}

func TestWindowResets(t *testing.T) {
	t.Parallel()

	rl := NewFixedWindowLimiter(1, 30*time.Millisecond)

	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Fatal("first request should be allowed")
	}
	if ok, _ := rl.Allow("1.2.3.4"); ok {
		t.Fatal("second request in the same window should be denied")
	}

	time.Sleep(40 * time.Millisecond)

	if ok, _ := rl.Allow("1.2.3.4"); !ok {
		t.Fatal("request after the window elapsed should be allowed")
	}
}
