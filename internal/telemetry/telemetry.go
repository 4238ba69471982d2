package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/irfndi/bovara-ml/internal/config"
)

const (
	ServiceName    = "bovara-ml"
	ServiceVersion = "1.0.0"
)

// Span operations started by the InvocationTracer
const (
	opPredictionPrefix = "prediction."
	opRanchRefresh     = "ranch_refresh"
)

// Options configure the Sentry client for the worker and API
type Options struct {
	DSN         string
	Environment string
	Release     string
	// RequestSampleRate samples HTTP transactions
	RequestSampleRate float64
	// InvocationSampleRate samples root prediction and refresh spans, the ones
	// the queue consumer and the CLI start without an HTTP parent
	InvocationSampleRate float64
}

// OptionsFromConfig returns nil when telemetry is disabled or has no DSN
func OptionsFromConfig(cfg config.TelemetryConfig, environment string) *Options {
	if !cfg.Enabled || cfg.DSN == "" {
		return nil
	}
	return &Options{
		DSN:                  cfg.DSN,
		Environment:          environment,
		Release:              ServiceVersion,
		RequestSampleRate:    cfg.SampleRate,
		InvocationSampleRate: cfg.InvocationSampleRate,
	}
}

// Init starts the Sentry client. A nil Options leaves Sentry disabled.
func Init(opts *Options) error {
	if opts == nil {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		ServerName:       ServiceName,
		EnableTracing:    true,
		TracesSampler:    opts.sampler(),
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	return nil
}

func (o Options) sampler() sentry.TracesSampler {
	return func(ctx sentry.SamplingContext) float64 {
		if ctx.Span != nil && isInvocation(ctx.Span.Op) {
			return o.InvocationSampleRate
		}
		return o.RequestSampleRate
	}
}

func isInvocation(op string) bool {
	return op == opRanchRefresh || strings.HasPrefix(op, opPredictionPrefix)
}

// Flush waits up to timeout for buffered events
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
