// Package telemetry builds the OpenTelemetry tracer provider shared by the
// loader, its HTTP client and the web viewer.
package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names accepted by Setup.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Options selects the exporter and where it writes.
type Options struct {
	Exporter    string
	ServiceName string
	Output      io.Writer
}

// Provider is the installed tracer provider plus its shutdown hook.
type Provider struct {
	*sdktrace.TracerProvider
}

// Setup builds a tracer provider and registers it globally. With the none
// exporter spans are still created and sampled, then dropped.
func Setup(ctx context.Context, opts Options) (*Provider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", opts.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	providerOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	switch opts.Exporter {
	case "", ExporterNone:
	case ExporterStdout:
		out := opts.Output
		if out == nil {
			out = io.Discard
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("otel stdout exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exp))
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", opts.Exporter)
	}

	tp := sdktrace.NewTracerProvider(providerOpts...)
	otel.SetTracerProvider(tp)
	return &Provider{TracerProvider: tp}, nil
}

// Close flushes pending spans, bounded by ctx.
func (p *Provider) Close(ctx context.Context) error {
	if p == nil || p.TracerProvider == nil {
		return nil
	}
	return p.Shutdown(ctx)
}
