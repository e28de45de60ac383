package apm

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type HTTPOpts struct {
	OperationName string
	OTEL          []otelhttp.Option
}

type HTTPMiddleware func(h http.Handler) http.Handler

func NewHTTPMiddleware(
	hopts *HTTPOpts,
) HTTPMiddleware {
	const minOptions = 2
	opts := make([]otelhttp.Option, 0, minOptions)
	opName := "otelhttp"
	if hopts != nil {
		opts = append(opts, hopts.OTEL...)
		if hopts.OperationName != "" {
			opName = hopts.OperationName
		}
	}

	gb := Global()
	opts = append(
		opts,
		otelhttp.WithMeterProvider(gb.GetMeterProvider()),
		otelhttp.WithTracerProvider(gb.GetTracerProvider()),
	)

	return otelhttp.NewMiddleware(opName, opts...)
}
