// Package telemetry wires OpenTelemetry logging, metrics, and tracing with
// OTLP gRPC exporters. Init builds one Resource for the service, registers the
// global providers, and hands back a ShutdownFunc that flushes everything.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"google.golang.org/grpc/credentials"
)

// loggerProvider holds the provider consumed by the logger package's otelzap
// bridge. It stays nil when telemetry was never initialized.
var loggerProvider *sdklog.LoggerProvider

// LoggerProvider returns the registered log provider, or nil when telemetry
// is disabled.
func LoggerProvider() *sdklog.LoggerProvider {
	return loggerProvider
}

type config struct {
	endpoint  string
	tlsCACert string
	creds     credentials.TransportCredentials
}

// Option customizes the OTLP exporters.
type Option func(*config)

// WithExporterEndpoint sets the collector endpoint ("host:port") for every
// exporter. When empty, the SDK's OTEL_EXPORTER_OTLP_* environment variables
// apply.
func WithExporterEndpoint(endpoint string) Option {
	return func(c *config) { c.endpoint = endpoint }
}

// WithExporterTLSCACert points the exporters at a PEM CA certificate file
// used to verify the collector.
func WithExporterTLSCACert(path string) Option {
	return func(c *config) { c.tlsCACert = path }
}

func (c config) logOptions() []otlploggrpc.Option {
	var opts []otlploggrpc.Option
	if c.endpoint != "" {
		opts = append(opts, otlploggrpc.WithEndpoint(c.endpoint))
	}
	if c.creds != nil {
		opts = append(opts, otlploggrpc.WithTLSCredentials(c.creds))
	}
	return opts
}

func (c config) metricOptions() []otlpmetricgrpc.Option {
	var opts []otlpmetricgrpc.Option
	if c.endpoint != "" {
		opts = append(opts, otlpmetricgrpc.WithEndpoint(c.endpoint))
	}
	if c.creds != nil {
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(c.creds))
	}
	return opts
}

func (c config) traceOptions() []otlptracegrpc.Option {
	var opts []otlptracegrpc.Option
	if c.endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(c.endpoint))
	}
	if c.creds != nil {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(c.creds))
	}
	return opts
}

func initLoggerProvider(ctx context.Context, res *sdkresource.Resource, cfg config) (*sdklog.LoggerProvider, error) {
	exporter, err := otlploggrpc.New(ctx, cfg.logOptions()...)
	if err != nil {
		return nil, err
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	loggerProvider = lp
	return lp, nil
}

func initMeterProvider(ctx context.Context, res *sdkresource.Resource, cfg config) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetricgrpc.New(ctx, cfg.metricOptions()...)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)
	return mp, nil
}

func initTracerProvider(ctx context.Context, res *sdkresource.Resource, cfg config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx, cfg.traceOptions()...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

func newResource(serviceName string) (*sdkresource.Resource, error) {
	return sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

// ShutdownFunc flushes and stops all telemetry providers.
type ShutdownFunc func(ctx context.Context) error

// Init configures OTLP logging, metrics and tracing for the named service and
// returns the shutdown callback. Call the callback during process teardown so
// buffered telemetry is not lost.
func Init(ctx context.Context, serviceName string, opts ...Option) (ShutdownFunc, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.tlsCACert != "" {
		creds, err := credentials.NewClientTLSFromFile(cfg.tlsCACert, "")
		if err != nil {
			return nil, fmt.Errorf("loading exporter CA certificate: %w", err)
		}
		cfg.creds = creds
	}

	res, err := newResource(serviceName)
	if err != nil {
		return nil, err
	}

	lp, err := initLoggerProvider(ctx, res, cfg)
	if err != nil {
		return nil, err
	}

	mp, err := initMeterProvider(ctx, res, cfg)
	if err != nil {
		return nil, err
	}

	tp, err := initTracerProvider(ctx, res, cfg)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(
			lp.Shutdown(ctx),
			mp.Shutdown(ctx),
			tp.Shutdown(ctx),
		)
	}, nil
}
