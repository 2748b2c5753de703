package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterRejectsAboveLimit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(3, time.Minute, WithClock(func() time.Time { return now }))

	for i := 0; i < 3; i++ {
		if !l.Allow(42) {
			t.Fatalf("message %d unexpectedly rejected", i+1)
		}
	}
	if l.Allow(42) {
		t.Fatal("message above limit accepted")
	}
}

func TestLimiterIndependentSenders(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(1, time.Minute, WithClock(func() time.Time { return now }))

	if !l.Allow(1) {
		t.Fatal("first sender rejected")
	}
	if !l.Allow(2) {
		t.Fatal("second sender rejected")
	}
	if l.Allow(1) {
		t.Fatal("first sender over limit accepted")
	}
}

func TestLimiterResetsAfterPeriod(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(2, time.Minute, WithClock(func() time.Time { return now }))

	l.Allow(7)
	l.Allow(7)
	if l.Allow(7) {
		t.Fatal("over-limit message accepted")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow(7) {
		t.Fatal("counter did not reset after the period")
	}
}

func TestLimiterTTLExtendsFromLastWrite(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(2, time.Minute, WithClock(func() time.Time { return now }))

	l.Allow(9)
	now = now.Add(40 * time.Second)
	l.Allow(9)

	// 40s later the first write would have expired, but the TTL runs
	// from the last write, so the counter is still live.
	now = now.Add(40 * time.Second)
	if l.Allow(9) {
		t.Fatal("expected rejection: TTL must extend from the last write")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow(9) {
		t.Fatal("counter did not expire after quiet period")
	}
}
