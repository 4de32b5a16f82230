package middleware

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCounterWindowReset(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCounter()
	c.now = func() time.Time { return now }

	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		got, err := c.Incr(ctx, "k", time.Minute)
		if err != nil {
			t.Fatalf("Incr: %v", err)
		}
		if got != want {
			t.Fatalf("count = %d, want %d", got, want)
		}
	}

	now = now.Add(2 * time.Minute)
	got, err := c.Incr(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("Incr after window: %v", err)
	}
	if got != 1 {
		t.Errorf("count after window elapsed = %d, want 1", got)
	}
}

func TestMemoryCounterIndependentKeys(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	if _, err := c.Incr(ctx, "a", time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := c.Incr(ctx, "b", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("count for fresh key = %d, want 1", got)
	}
}
