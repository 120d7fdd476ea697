package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

type namedBackend struct {
	name string
	err  error
}

func call(b namedBackend) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	return b.name, nil
}

func TestExecuteWithResult_PrimarySuccess(t *testing.T) {
	fg := NewFallbackGroup(namedBackend{name: "primary"}, "primary", FallbackConfig{})
	fg.AddFallback("secondary", namedBackend{name: "secondary"})

	got, err := ExecuteWithResult(fg, call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "primary" {
		t.Errorf("got %q, want primary", got)
	}
}

func TestExecuteWithResult_Failover(t *testing.T) {
	fg := NewFallbackGroup(namedBackend{name: "primary", err: errTest}, "primary", FallbackConfig{})
	fg.AddFallback("secondary", namedBackend{name: "secondary"})

	got, err := ExecuteWithResult(fg, call)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "secondary" {
		t.Errorf("got %q, want secondary", got)
	}
}

func TestExecuteWithResult_AllFail(t *testing.T) {
	last := errors.New("secondary down")
	fg := NewFallbackGroup(namedBackend{err: errTest}, "primary", FallbackConfig{})
	fg.AddFallback("secondary", namedBackend{err: last})

	_, err := ExecuteWithResult(fg, call)
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
	if !errors.Is(err, last) {
		t.Errorf("err = %v, want it to wrap the last error", err)
	}
}

func TestExecuteWithResult_NoFailoverOnCancel(t *testing.T) {
	fg := NewFallbackGroup(namedBackend{err: context.Canceled}, "primary", FallbackConfig{})
	calledSecondary := false
	fg.AddFallback("secondary", namedBackend{name: "secondary"})

	_, err := ExecuteWithResult(fg, func(b namedBackend) (string, error) {
		if b.name == "secondary" {
			calledSecondary = true
		}
		return call(b)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrAllFailed) {
		t.Error("cancellation must not be reported as ErrAllFailed")
	}
	if calledSecondary {
		t.Error("secondary must not be tried after cancellation")
	}
}

func TestExecuteWithResult_SkipsOpenBreaker(t *testing.T) {
	fg := NewFallbackGroup(namedBackend{name: "primary", err: errTest}, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour},
	})
	fg.AddFallback("secondary", namedBackend{name: "secondary"})

	// First call trips the primary's breaker.
	if _, err := ExecuteWithResult(fg, call); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if st := fg.Breaker("primary").State(); st != StateOpen {
		t.Fatalf("primary breaker = %v, want open", st)
	}

	primaryCalls := 0
	got, err := ExecuteWithResult(fg, func(b namedBackend) (string, error) {
		if b.name == "primary" {
			primaryCalls++
		}
		return call(b)
	})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if got != "secondary" {
		t.Errorf("got %q, want secondary", got)
	}
	if primaryCalls != 0 {
		t.Errorf("primary called %d times with open breaker, want 0", primaryCalls)
	}
}

func TestFallbackGroup_Names(t *testing.T) {
	fg := NewFallbackGroup(namedBackend{}, "clova", FallbackConfig{})
	fg.AddFallback("elevenlabs", namedBackend{})

	names := fg.Names()
	if len(names) != 2 || names[0] != "clova" || names[1] != "elevenlabs" {
		t.Errorf("Names() = %v, want [clova elevenlabs]", names)
	}
	if fg.Breaker("missing") != nil {
		t.Error("Breaker(missing) should be nil")
	}
}
