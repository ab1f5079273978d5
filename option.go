package spawnq

import (
	"time"

	"github.com/spawnq/spawnq/event"
	"github.com/spawnq/spawnq/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises a Scheduler at construction time.
type Option func(s *Scheduler)

// WithParallelism sets the concurrency limit; values below 1 are ignored.
func WithParallelism(n int) Option {
	return func(s *Scheduler) {
		if n >= 1 {
			s.parallelism = n
		}
	}
}

// WithPollInterval sets the sleep between completion checks in WaitAll.
func WithPollInterval(interval time.Duration) Option {
	return func(s *Scheduler) { s.pollInterval = interval }
}

// WithStartDelay sets the pacing gap enforced before each dispatch.
func WithStartDelay(delay time.Duration) Option {
	return func(s *Scheduler) { s.startDelay = delay }
}

// WithStartCallback sets the hook invoked before each process start.
func WithStartCallback(hook Hook) Option {
	return func(s *Scheduler) { s.onStart = hook }
}

// WithFinishCallback sets the hook invoked after each observed completion.
func WithFinishCallback(hook Hook) Option {
	return func(s *Scheduler) { s.onFinish = hook }
}

// WithEventService wires lifecycle event publishing.
func WithEventService(service *event.Service) Option {
	return func(s *Scheduler) { s.events = service }
}

// WithConfig applies a serialisable configuration.
func WithConfig(config *Config) Option {
	return func(s *Scheduler) {
		if config == nil {
			return
		}
		if config.Scheduler.Parallelism >= 1 {
			s.parallelism = config.Scheduler.Parallelism
		}
		s.pollInterval = time.Duration(config.Scheduler.PollIntervalMs) * time.Millisecond
		s.startDelay = time.Duration(config.Scheduler.StartDelayMs) * time.Millisecond
	}
}

// WithTracing configures OpenTelemetry tracing. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file
// path. Safe to call multiple times - the first successful initialisation
// wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Scheduler) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter (OTLP, Jaeger, Zipkin, ...). The first successful
// initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Scheduler) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
