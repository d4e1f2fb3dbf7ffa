package client

import (
	"testing"
	"time"
)

func TestBackoffDoublesUpToCap(t *testing.T) {
	cfg := BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     500 * time.Millisecond,
	}
	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
	}
	for i, expect := range want {
		got := NextBackoffDelay(cfg, i+1, nil)
		if got != expect {
			t.Fatalf("attempt %d: %v, want %v", i+1, got, expect)
		}
	}
}

func TestBackoffJitterStaysBounded(t *testing.T) {
	cfg := BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     1 * time.Second,
		Jitter:       true,
	}
	// With a nil rng, jitter halves the delay deterministically.
	if got := NextBackoffDelay(cfg, 2, nil); got != 100*time.Millisecond {
		t.Fatalf("jittered attempt 2: %v", got)
	}
}

func TestBackoffZeroInitialDelay(t *testing.T) {
	if got := NextBackoffDelay(BackoffConfig{}, 3, nil); got != 0 {
		t.Fatalf("zero config attempt 3: %v", got)
	}
}
