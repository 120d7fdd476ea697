// Package observe provides application-wide observability primitives for
// greeni: OpenTelemetry metrics, distributed tracing, structured logging,
// request IDs, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed by [InitProvider] and served by
// [MetricsHandler] at /metrics. Tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all greeni metrics.
const meterName = "github.com/MrWong99/greeni"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Latency histograms per collaborator ---

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// LLMDuration tracks LLM completion latency.
	LLMDuration metric.Float64Histogram

	// TTSDuration tracks text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// ProviderRetries counts retry attempts against STT/TTS backends.
	ProviderRetries metric.Int64Counter

	// DialogueTurns counts completed dialogue turns. Use with attributes:
	//   attribute.String("feature", ...), attribute.String("status", ...)
	DialogueTurns metric.Int64Counter

	// SessionPurges counts discarded sessions. Use with attributes:
	//   attribute.String("feature", ...), attribute.String("reason", ...)
	SessionPurges metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live dialogue sessions per feature.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// remote model calls, which routinely take several seconds.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.STTDuration, err = m.Float64Histogram("greeni.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.LLMDuration, err = m.Float64Histogram("greeni.llm.duration",
		metric.WithDescription("Latency of LLM completion."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("greeni.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ProviderRequests, err = m.Int64Counter("greeni.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.ProviderErrors, err = m.Int64Counter("greeni.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}
	if met.ProviderRetries, err = m.Int64Counter("greeni.provider.retries",
		metric.WithDescription("Total retry attempts against speech backends."),
	); err != nil {
		return nil, err
	}
	if met.DialogueTurns, err = m.Int64Counter("greeni.dialogue.turns",
		metric.WithDescription("Total dialogue turns by feature and resulting session status."),
	); err != nil {
		return nil, err
	}
	if met.SessionPurges, err = m.Int64Counter("greeni.session.purges",
		metric.WithDescription("Total discarded sessions by feature and reason."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("greeni.active_sessions",
		metric.WithDescription("Number of live dialogue sessions."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("greeni.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest records a provider request counter increment with the
// standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordRetry records one retry attempt against the named service kind.
func (m *Metrics) RecordRetry(ctx context.Context, kind string) {
	m.ProviderRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordTurn records one completed dialogue turn.
func (m *Metrics) RecordTurn(ctx context.Context, feature, status string) {
	m.DialogueTurns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("feature", feature),
			attribute.String("status", status),
		),
	)
}

// RecordPurge records one discarded session.
func (m *Metrics) RecordPurge(ctx context.Context, feature, reason string) {
	m.SessionPurges.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("feature", feature),
			attribute.String("reason", reason),
		),
	)
}

// SessionOpened increments the active session gauge for feature.
func (m *Metrics) SessionOpened(ctx context.Context, feature string) {
	m.ActiveSessions.Add(ctx, 1, metric.WithAttributes(attribute.String("feature", feature)))
}

// SessionClosed decrements the active session gauge for feature.
func (m *Metrics) SessionClosed(ctx context.Context, feature string) {
	m.ActiveSessions.Add(ctx, -1, metric.WithAttributes(attribute.String("feature", feature)))
}
