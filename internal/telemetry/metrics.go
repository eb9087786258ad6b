package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/webbuild"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Resolve metrics
	ResolveFailuresTotal metric.Int64Counter

	// Build metrics
	BuildDuration      metric.Float64Histogram
	BuildFailuresTotal metric.Int64Counter
	BuildOutputFiles   metric.Int64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Instruments bind to the global meter provider, so Init must run first for
// them to be exported.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.ResolveFailuresTotal, _ = meter.Int64Counter(
		"webbuild.config.resolve.failures.total",
		metric.WithDescription("Total number of config resolutions rejected by validation"),
		metric.WithUnit("{error}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"webbuild.build.duration",
		metric.WithDescription("Duration of esbuild builds and rebuilds"),
		metric.WithUnit("ms"),
	)

	m.BuildFailuresTotal, _ = meter.Int64Counter(
		"webbuild.build.failures.total",
		metric.WithDescription("Total number of builds that finished with errors"),
		metric.WithUnit("{build}"),
	)

	m.BuildOutputFiles, _ = meter.Int64Histogram(
		"webbuild.build.output.files",
		metric.WithDescription("Number of files written per build"),
		metric.WithUnit("{file}"),
	)

	return m
}
