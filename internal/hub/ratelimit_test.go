package hub

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	l := NewRateLimiter(30, time.Minute)

	for i := 0; i < 30; i++ {
		if !l.Allow("u1") {
			t.Fatalf("send %d rejected inside the limit", i+1)
		}
	}
	if l.Allow("u1") {
		t.Fatal("send 31 allowed, want rejected")
	}
	if l.Allow("u1") {
		t.Fatal("rejected send must not consume quota for later windows")
	}
}

func TestRateLimiterUsersAreIndependent(t *testing.T) {
	l := NewRateLimiter(1, time.Minute)

	if !l.Allow("u1") {
		t.Fatal("u1 first send rejected")
	}
	if l.Allow("u1") {
		t.Fatal("u1 second send allowed")
	}
	if !l.Allow("u2") {
		t.Fatal("u2 blocked by u1's quota")
	}
}

func TestRateLimiterWindowRollover(t *testing.T) {
	clock := time.Unix(1_000_000, 0)
	l := NewRateLimiter(2, time.Minute)
	l.now = func() time.Time { return clock }

	l.Allow("u1")
	l.Allow("u1")
	if l.Allow("u1") {
		t.Fatal("over-limit send allowed")
	}

	// Exactly at the boundary the old window still applies.
	clock = clock.Add(time.Minute)
	if l.Allow("u1") {
		t.Fatal("send allowed at exactly the window edge")
	}

	clock = clock.Add(time.Second)
	if !l.Allow("u1") {
		t.Fatal("send rejected after the window expired")
	}
}
