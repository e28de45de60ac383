// Package apm sets up application performance monitoring (tracing & metrics) using OpenTelemetry.
// A no-op instance is available by default, so the instrumented packages work even if APM is not initialized.
package apm

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/naughtygopher/errors"
	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type Options struct {
	Environment    string
	Debug          bool
	ServiceName    string
	ServiceVersion string
	// TracesSampleRate is the ratio [0, 1] of traces sampled
	TracesSampleRate float64
	// CollectorURL is the OTLP endpoint. URLs starting with http(s):// use OTLP/HTTP, everything else gRPC
	CollectorURL         string
	PrometheusScrapePort uint16
	UseStdOut            bool
}

type APM struct {
	appName        string
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	shutdowners    []func(ctx context.Context) error
}

var (
	globalLock = &sync.RWMutex{}
	global     = &APM{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
)

func Global() *APM {
	globalLock.RLock()
	defer globalLock.RUnlock()
	return global
}

func SetGlobal(ins *APM) {
	globalLock.Lock()
	defer globalLock.Unlock()
	global = ins
	otel.SetTracerProvider(ins.tracerProvider)
	otel.SetMeterProvider(ins.meterProvider)
}

func (ap *APM) GetTracerProvider() trace.TracerProvider { //nolint:ireturn // that's how otel sdk works
	return ap.tracerProvider
}

func (ap *APM) GetMeterProvider() metric.MeterProvider { //nolint:ireturn // that's how otel sdk works
	return ap.meterProvider
}

// AppTracer is the tracer to be used for spans created by the application itself
func (ap *APM) AppTracer() trace.Tracer { //nolint:ireturn // that's how otel sdk works
	return ap.tracerProvider.Tracer(ap.appName)
}

// AppMeter is the meter to be used for instruments created by the application itself
func (ap *APM) AppMeter() metric.Meter { //nolint:ireturn // that's how otel sdk works
	return ap.meterProvider.Meter(ap.appName)
}

func (ap *APM) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, fn := range ap.shutdowners {
		err := fn(ctx)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return errors.Wrap(firstErr, "failed to shutdown APM")
	}
	return nil
}

func traceExporter(ctx context.Context, opts *Options) (sdktrace.SpanExporter, error) { //nolint:ireturn // that's how otel sdk works
	if opts.CollectorURL == "" {
		if opts.UseStdOut || opts.Debug {
			exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
			if err != nil {
				return nil, errors.Wrap(err, "stdouttrace.New")
			}
			return exp, nil
		}
		return nil, nil
	}

	if strings.HasPrefix(opts.CollectorURL, "http://") || strings.HasPrefix(opts.CollectorURL, "https://") {
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(opts.CollectorURL))
		if err != nil {
			return nil, errors.Wrap(err, "otlptracehttp.New")
		}
		return exp, nil
	}

	exp, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(opts.CollectorURL),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "otlptracegrpc.New")
	}
	return exp, nil
}

func metricReaders(opts *Options) ([]sdkmetric.Reader, *http.Server, error) {
	readers := make([]sdkmetric.Reader, 0, 2)
	var scraper *http.Server

	if opts.PrometheusScrapePort != 0 {
		exporter, err := prometheusExporter()
		if err != nil {
			return nil, nil, err
		}
		readers = append(readers, exporter)
		scraper = prometheusScraper(opts)
	}

	if opts.UseStdOut {
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, nil, errors.Wrap(err, "stdoutmetric.New")
		}
		const interval = time.Minute
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval)))
	}

	return readers, scraper, nil
}

func New(ctx context.Context, opts *Options) (*APM, error) {
	res := resource.NewSchemaless(
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(opts.ServiceVersion),
		semconv.DeploymentEnvironment(opts.Environment),
	)

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.TracesSampleRate))),
	}
	exporter, err := traceExporter(ctx, opts)
	if err != nil {
		return nil, err
	}
	if exporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)

	readers, scraper, err := metricReaders(opts)
	if err != nil {
		return nil, err
	}
	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, reader := range readers {
		mpOpts = append(mpOpts, sdkmetric.WithReader(reader))
	}
	meterProvider := sdkmetric.NewMeterProvider(mpOpts...)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		b3.New(),
	))

	ins := &APM{
		appName:        opts.ServiceName,
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
		shutdowners: []func(ctx context.Context) error{
			tracerProvider.Shutdown,
			meterProvider.Shutdown,
		},
	}
	if scraper != nil {
		ins.shutdowners = append(ins.shutdowners, scraper.Shutdown)
	}

	return ins, nil
}
