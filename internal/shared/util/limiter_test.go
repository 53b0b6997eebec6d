package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 runs per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow() {
		t.Error("expected first run to be allowed")
	}
	if !l.Allow() {
		t.Error("expected second run to be allowed (burst)")
	}
	if l.Allow() {
		t.Error("expected third run to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow() {
		t.Error("expected token to be refilled after wait")
	}
}

func TestLimiterUnlimited(t *testing.T) {
	l := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatalf("run %d rejected by a disabled limiter", i)
		}
	}
}

func TestLimiterRegistry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := NewLimiterRegistry(ctx, 100, 10, 100*time.Millisecond)

	l1 := reg.Get("src/A.java")
	l2 := reg.Get("src/b.py")

	if l1 == l2 {
		t.Error("expected different limiters for different files")
	}
	if reg.Get("src/A.java") != l1 {
		t.Error("expected same limiter for same file")
	}
	if reg.Len() != 2 {
		t.Fatalf("expected 2 limiters, got %d", reg.Len())
	}

	time.Sleep(250 * time.Millisecond)
	if reg.Get("src/A.java") == l1 {
		t.Error("expected idle limiter to be evicted and replaced")
	}
}

func TestLimiterRegistryAllow(t *testing.T) {
	reg := NewLimiterRegistry(context.Background(), 1, 1, 0)
	if !reg.Allow("a.py") {
		t.Fatal("expected first run to be allowed")
	}
	if reg.Allow("a.py") {
		t.Fatal("expected second immediate run to be rejected")
	}
	if !reg.Allow("b.py") {
		t.Fatal("expected other key to have its own budget")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	l.Allow() // consume burst

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Wait returned too early")
	}
}
