package myhttp

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/metric"
)

func newServerMux(logger *slog.Logger, httpRequestsDurationMicroSeconds metric.Int64Histogram) *myRouter {
	return &myRouter{
		ServeMux:                         http.NewServeMux(),
		logger:                           logger,
		httpRequestsDurationMicroSeconds: httpRequestsDurationMicroSeconds,
	}
}

var NewServerMux = newServerMux

type contextKey string

const loggerContextKey contextKey = "loggerKey"

func withLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// Logger returns the request logger carrying trace and span ids, or the
// default logger outside a request.
func Logger(ctx context.Context) *slog.Logger {
	v := ctx.Value(loggerContextKey)

	l, ok := v.(*slog.Logger)
	if !ok {
		return slog.Default()
	}

	return l
}
