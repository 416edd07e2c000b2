// Package telemetry wires Sentry tracing and Prometheus metrics.
package telemetry

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

const serviceName = "propertybot"

// flushTimeout bounds how long shutdown waits for queued events.
const flushTimeout = 5 * time.Second

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
}

// Init initializes Sentry and returns a flush function for shutdown. Without
// a DSN every helper in this package is a no-op.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		ServerName:       serviceName,
		TracesSampler:    sentry.TracesSampler(sampler(cfg.TracesSampleRate)),
	})
	if err != nil {
		log.Printf("sentry: failed to initialize (continuing without tracing): %v", err)
		return func() {}, nil
	}

	log.Printf("sentry: tracing initialized (environment: %s, sample_rate: %.2f)", cfg.Environment, cfg.TracesSampleRate)
	return func() { sentry.Flush(flushTimeout) }, nil
}

// sampler drops probe traffic, follows the parent's decision for child
// spans and samples everything else at rate.
func sampler(rate float64) func(ctx sentry.SamplingContext) float64 {
	return func(ctx sentry.SamplingContext) float64 {
		if isProbe(ctx.Span.Name) {
			return 0
		}
		var noParent sentry.SpanID
		if ctx.Span.ParentSpanID != noParent {
			if ctx.Span.Sampled.Bool() {
				return 1
			}
			return 0
		}
		return rate
	}
}

func isProbe(name string) bool {
	return strings.HasSuffix(name, " /health") || strings.HasSuffix(name, " /metrics")
}

// SpanAttributes tags a span with the turn or property it works on.
type SpanAttributes struct {
	TurnID     string
	PropertyID string
	Source     string
	Operation  string
}

func (a SpanAttributes) apply(span *sentry.Span) {
	if a.TurnID != "" {
		span.SetTag("turn_id", a.TurnID)
	}
	if a.PropertyID != "" {
		span.SetTag("property_id", a.PropertyID)
	}
	if a.Source != "" {
		span.SetData("import_source", a.Source)
	}
	if a.Operation != "" {
		span.SetData("operation", a.Operation)
	}
}

// Span is a nil-safe handle on a sentry span.
type Span struct {
	inner *sentry.Span
}

// End finishes the span.
func (s *Span) End() {
	if s != nil && s.inner != nil {
		s.inner.Finish()
	}
}

// SetError marks the span failed and reports err on the span's hub.
func (s *Span) SetError(err error) {
	if s == nil || s.inner == nil || err == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	if hub := sentry.GetHubFromContext(s.inner.Context()); hub != nil {
		hub.CaptureException(err)
	}
}

// StartSpan starts a child of the span in ctx, or a new transaction when
// ctx carries none.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}
	attrs.apply(span)
	return span.Context(), &Span{inner: span}
}

// StartTransaction starts a root span. Chat frames arrive outside the HTTP
// middleware, so each one gets its own.
func StartTransaction(ctx context.Context, name, op string) (context.Context, *Span) {
	opts := []sentry.SpanOption{sentry.WithTransactionName(name)}
	if op != "" {
		opts = append(opts, sentry.WithOpName(op))
	}
	span := sentry.StartSpan(ctx, op, opts...)
	return span.Context(), &Span{inner: span}
}

func hubFrom(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// CaptureError reports err on the request's hub.
func CaptureError(ctx context.Context, err error) {
	hubFrom(ctx).CaptureException(err)
}

// CaptureMessage reports message on the request's hub.
func CaptureMessage(ctx context.Context, message string) {
	hubFrom(ctx).CaptureMessage(message)
}

// AddBreadcrumb records a step, e.g. a turn stage, on the request's hub.
func AddBreadcrumb(ctx context.Context, category, message string) {
	hubFrom(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "default",
		Category:  category,
		Message:   message,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}, nil)
}
