package dialogue

import (
	"context"
	"testing"
	"time"
)

func TestSweeper_SweepOnce(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	roleplay := NewStore(FeatureRoleplay, WithClock(clock))
	diary := NewStore(FeatureDiary, WithClock(clock))
	roleplay.Append("r", "x", "y")
	diary.Append("d", "x", "y")

	sw := NewSweeper(30*time.Minute, time.Minute, roleplay, diary)
	sw.now = clock

	if n := sw.SweepOnce(); n != 0 {
		t.Fatalf("fresh sessions swept: %d", n)
	}
	now = now.Add(31 * time.Minute)
	if n := sw.SweepOnce(); n != 2 {
		t.Fatalf("SweepOnce = %d, want 2", n)
	}
	if roleplay.Len() != 0 || diary.Len() != 0 {
		t.Error("stores not empty after sweep")
	}
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	t.Parallel()
	sw := NewSweeper(time.Minute, 5*time.Millisecond, NewStore(FeatureDiary))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestSweeper_DisabledWithoutTTL(t *testing.T) {
	t.Parallel()
	store := NewStore(FeatureDiary)
	store.Append("d", "x", "y")
	sw := NewSweeper(0, time.Millisecond, store)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = sw.Run(ctx)
	if !store.Exists("d") {
		t.Error("sweeper without TTL must not purge")
	}
}
