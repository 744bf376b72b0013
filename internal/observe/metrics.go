// Package observe provides application-wide observability primitives for
// Confab: OpenTelemetry metrics exported through a Prometheus bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Confab metrics.
const meterName = "github.com/MrWong99/confab"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// TTSDuration tracks per-utterance text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// STTSessionDuration tracks the wall-clock duration of recognition
	// sessions from start to the terminal stop event.
	STTSessionDuration metric.Float64Histogram

	// --- Counters ---

	// SynthesizedUtterances counts utterances processed during synthesis.
	// Use with attribute: attribute.String("status", "ok"|"skipped").
	SynthesizedUtterances metric.Int64Counter

	// RecognitionEvents counts recognition events received from the speech
	// service. Use with attribute: attribute.String("kind", ...).
	RecognitionEvents metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live recognition sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for speech-service round trips.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TTSDuration, err = m.Float64Histogram("confab.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis per utterance."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.STTSessionDuration, err = m.Float64Histogram("confab.stt.session.duration",
		metric.WithDescription("Wall-clock duration of recognition sessions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.SynthesizedUtterances, err = m.Int64Counter("confab.synthesis.utterances",
		metric.WithDescription("Total utterances processed during synthesis by status."),
	); err != nil {
		return nil, err
	}
	if met.RecognitionEvents, err = m.Int64Counter("confab.recognition.events",
		metric.WithDescription("Total recognition events received by kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("confab.active_sessions",
		metric.WithDescription("Number of live recognition sessions."),
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
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
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

// RecordUtterance records a synthesis utterance counter increment with the
// standard status attribute.
func (m *Metrics) RecordUtterance(ctx context.Context, status string) {
	m.SynthesizedUtterances.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordRecognitionEvent records a recognition event counter increment keyed
// by event kind.
func (m *Metrics) RecordRecognitionEvent(ctx context.Context, kind string) {
	m.RecognitionEvents.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
