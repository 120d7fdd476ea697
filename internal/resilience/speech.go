package resilience

import (
	"context"

	"github.com/MrWong99/greeni/pkg/provider/stt"
	"github.com/MrWong99/greeni/pkg/provider/tts"
)

// ── STT ──────────────────────────────────────────────────────────────────────

// STTFallback implements [stt.Provider] with bounded retry per backend and
// failover across backends. Each backend has its own circuit breaker.
type STTFallback struct {
	group  *FallbackGroup[stt.Provider]
	policy RetryPolicy
}

// Compile-time interface assertion.
var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig, policy RetryPolicy) *STTFallback {
	return &STTFallback{
		group:  NewFallbackGroup(primary, primaryName, cfg),
		policy: policy,
	}
}

// AddFallback registers an additional STT provider as a fallback.
func (f *STTFallback) AddFallback(name string, p stt.Provider) {
	f.group.AddFallback(name, p)
}

// Transcribe tries each healthy backend in order. Transient failures are
// retried against the same backend before moving on.
func (f *STTFallback) Transcribe(ctx context.Context, audio stt.Audio) (stt.Transcript, error) {
	return ExecuteWithResult(f.group, func(p stt.Provider) (stt.Transcript, error) {
		var tr stt.Transcript
		err := Do(ctx, f.policy, func(ctx context.Context) error {
			var err error
			tr, err = p.Transcribe(ctx, audio)
			return err
		})
		return tr, err
	})
}

// ── TTS ──────────────────────────────────────────────────────────────────────

// TTSFallback implements [tts.Provider] with bounded retry per backend and
// failover across backends. Each backend has its own circuit breaker.
type TTSFallback struct {
	group  *FallbackGroup[ttsBackend]
	policy RetryPolicy
}

type ttsBackend struct {
	p       tts.Provider
	primary bool
}

// Compile-time interface assertion.
var _ tts.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a [TTSFallback] with primary as the preferred backend.
func NewTTSFallback(primary tts.Provider, primaryName string, cfg FallbackConfig, policy RetryPolicy) *TTSFallback {
	return &TTSFallback{
		group:  NewFallbackGroup(ttsBackend{p: primary, primary: true}, primaryName, cfg),
		policy: policy,
	}
}

// AddFallback registers an additional TTS provider as a fallback.
func (f *TTSFallback) AddFallback(name string, p tts.Provider) {
	f.group.AddFallback(name, ttsBackend{p: p})
}

// Synthesize tries each healthy backend in order. Transient failures are
// retried against the same backend before moving on. A voice name only makes
// sense to the backend it was written for, so fallbacks receive the request
// with Voice cleared and use their own default.
func (f *TTSFallback) Synthesize(ctx context.Context, req tts.Request) (*tts.Audio, error) {
	return ExecuteWithResult(f.group, func(b ttsBackend) (*tts.Audio, error) {
		r := req
		if !b.primary {
			r.Voice = ""
		}
		var audio *tts.Audio
		err := Do(ctx, f.policy, func(ctx context.Context) error {
			var err error
			audio, err = b.p.Synthesize(ctx, r)
			return err
		})
		return audio, err
	})
}
