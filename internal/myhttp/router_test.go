package myhttp

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func newTestMux(t *testing.T, buf *bytes.Buffer) *myRouter {
	t.Helper()

	histogram, err := noop.NewMeterProvider().Meter("test").Int64Histogram("http_requests_duration_micro_seconds")
	require.NoError(t, err)
	return NewServerMux(slog.New(slog.NewJSONHandler(buf, nil)), histogram)
}

func TestMiddleware(t *testing.T) {
	t.Run("RequestLogger", func(t *testing.T) {
		var buf bytes.Buffer
		mux := newTestMux(t, &buf)
		mux.HandleFuncWithMiddleware("GET /hello", func(w http.ResponseWriter, r *http.Request) {
			Logger(r.Context()).Info("hello")
			w.WriteHeader(http.StatusNoContent)
		})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hello", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Contains(t, buf.String(), `"traceid"`)
	})

	t.Run("RecoversNonStringPanic", func(t *testing.T) {
		var buf bytes.Buffer
		mux := newTestMux(t, &buf)
		mux.HandleFuncWithMiddleware("GET /panic", func(w http.ResponseWriter, r *http.Request) {
			panic(42)
		})

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, buf.String(), `"msg":"42"`)
	})
}
