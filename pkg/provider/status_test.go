package provider

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"429", &StatusError{Service: "clova", StatusCode: 429}, true},
		{"500", &StatusError{Service: "clova", StatusCode: 500}, true},
		{"502", &StatusError{Service: "clova", StatusCode: 502}, true},
		{"503 wrapped", fmt.Errorf("tts: %w", &StatusError{Service: "clova", StatusCode: 503}), true},
		{"504", &StatusError{Service: "clova", StatusCode: 504}, true},
		{"400", &StatusError{Service: "clova", StatusCode: 400}, false},
		{"401", &StatusError{Service: "clova", StatusCode: 401}, false},
		{"501", &StatusError{Service: "clova", StatusCode: 501}, false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatusError_Message(t *testing.T) {
	err := &StatusError{Service: "openai-stt", StatusCode: 503, Message: "overloaded"}
	if got := err.Error(); got != "openai-stt: HTTP 503: overloaded" {
		t.Errorf("unexpected message %q", got)
	}
	if got := (&StatusError{Service: "clova", StatusCode: 429}).Error(); got != "clova: HTTP 429" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestBodyExcerpt(t *testing.T) {
	long := strings.Repeat("a", 500)
	if n := len(BodyExcerpt([]byte(long))); n != 200 {
		t.Errorf("excerpt length = %d, want 200", n)
	}
	if got := BodyExcerpt([]byte("short")); got != "short" {
		t.Errorf("unexpected excerpt %q", got)
	}
}
