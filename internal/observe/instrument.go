package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/greeni/pkg/provider/llm"
	"github.com/MrWong99/greeni/pkg/provider/stt"
	"github.com/MrWong99/greeni/pkg/provider/tts"
)

// ── Shared ───────────────────────────────────────────────────────────────────

// observeCall finishes a provider call: it records the latency histogram, the
// request and error counters, and the span status.
func observeCall(ctx context.Context, m *Metrics, span trace.Span, h metric.Float64Histogram, name, kind string, start time.Time, err error) {
	h.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("provider", name)))
	status := "ok"
	if err != nil {
		status = "error"
		m.RecordProviderError(ctx, name, kind)
	}
	m.RecordProviderRequest(ctx, name, kind, status)
	EndSpan(span, err)
}

// ── LLM ──────────────────────────────────────────────────────────────────────

// InstrumentedLLM wraps an llm.Provider with metrics and tracing.
type InstrumentedLLM struct {
	inner   llm.Provider
	name    string
	metrics *Metrics
}

// WrapLLM returns p instrumented under the given provider name.
func WrapLLM(p llm.Provider, name string, m *Metrics) *InstrumentedLLM {
	return &InstrumentedLLM{inner: p, name: name, metrics: m}
}

// Complete implements llm.Provider.
func (w *InstrumentedLLM) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	ctx, span := StartSpan(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("provider", w.name),
		attribute.Int("messages", len(req.Messages)),
		attribute.Bool("json_mode", req.JSONMode),
	))
	start := time.Now()
	resp, err := w.inner.Complete(ctx, req)
	if resp != nil {
		span.SetAttributes(attribute.Int("tokens.total", resp.Usage.TotalTokens))
	}
	observeCall(ctx, w.metrics, span, w.metrics.LLMDuration, w.name, "llm", start, err)
	return resp, err
}

// Capabilities implements llm.Provider.
func (w *InstrumentedLLM) Capabilities() llm.ModelCapabilities {
	return w.inner.Capabilities()
}

// ── STT ──────────────────────────────────────────────────────────────────────

// InstrumentedSTT wraps an stt.Provider with metrics and tracing.
type InstrumentedSTT struct {
	inner   stt.Provider
	name    string
	metrics *Metrics
}

// WrapSTT returns p instrumented under the given provider name.
func WrapSTT(p stt.Provider, name string, m *Metrics) *InstrumentedSTT {
	return &InstrumentedSTT{inner: p, name: name, metrics: m}
}

// Transcribe implements stt.Provider.
func (w *InstrumentedSTT) Transcribe(ctx context.Context, audio stt.Audio) (stt.Transcript, error) {
	ctx, span := StartSpan(ctx, "stt.transcribe", trace.WithAttributes(
		attribute.String("provider", w.name),
		attribute.Int("audio.bytes", len(audio.Data)),
	))
	start := time.Now()
	tr, err := w.inner.Transcribe(ctx, audio)
	observeCall(ctx, w.metrics, span, w.metrics.STTDuration, w.name, "stt", start, err)
	return tr, err
}

// ── TTS ──────────────────────────────────────────────────────────────────────

// InstrumentedTTS wraps a tts.Provider with metrics and tracing.
type InstrumentedTTS struct {
	inner   tts.Provider
	name    string
	metrics *Metrics
}

// WrapTTS returns p instrumented under the given provider name.
func WrapTTS(p tts.Provider, name string, m *Metrics) *InstrumentedTTS {
	return &InstrumentedTTS{inner: p, name: name, metrics: m}
}

// Synthesize implements tts.Provider.
func (w *InstrumentedTTS) Synthesize(ctx context.Context, req tts.Request) (*tts.Audio, error) {
	ctx, span := StartSpan(ctx, "tts.synthesize", trace.WithAttributes(
		attribute.String("provider", w.name),
		attribute.Int("text.runes", len([]rune(req.Text))),
	))
	start := time.Now()
	audio, err := w.inner.Synthesize(ctx, req)
	observeCall(ctx, w.metrics, span, w.metrics.TTSDuration, w.name, "tts", start, err)
	return audio, err
}

var (
	_ llm.Provider = (*InstrumentedLLM)(nil)
	_ stt.Provider = (*InstrumentedSTT)(nil)
	_ tts.Provider = (*InstrumentedTTS)(nil)
)
