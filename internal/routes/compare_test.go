package routes

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	screenshot "screenshot-assertion/internal/assert"
	"screenshot-assertion/internal/pixel"
	"screenshot-assertion/internal/report"
	"screenshot-assertion/internal/storage"
)

func encodePNG(t *testing.T, b *pixel.Buffer) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, b.EncodePNG(&buf))
	return buf.Bytes()
}

func newCompareRequest(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for k, v := range files {
		part, err := w.CreateFormFile(k, k+".png")
		require.NoError(t, err)
		_, err = part.Write(v)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/compare", &body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	return r
}

func newHandler(t *testing.T, recorder *report.Recorder) http.HandlerFunc {
	t.Helper()

	s, err := storage.NewFileStorage(context.Background(), storage.FileConfig{Directory: t.TempDir()})
	require.NoError(t, err)
	counter, err := noop.NewMeterProvider().Meter("test").Int64Counter("screenshot_comparisons_total")
	require.NoError(t, err)

	return Compare(&screenshot.Comparator{
		Storage: s,
		Sink:    recorder,
		Now: func() time.Time {
			return time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
		},
	}, counter)
}

func TestCompare(t *testing.T) {
	red := pixel.Fill(10, 10, pixel.NewRGB(255, 0, 0))
	dotted := pixel.Generate(10, 10, func(x, y int) pixel.RGB {
		if x == 5 && y == 5 {
			return pixel.NewRGB(0, 0, 255)
		}
		return pixel.NewRGB(255, 0, 0)
	})

	t.Run("Equal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newHandler(t, &report.Recorder{})(rec, newCompareRequest(t, nil, map[string][]byte{
			"actual":   encodePNG(t, red),
			"expected": encodePNG(t, red),
		}))

		require.Equal(t, http.StatusOK, rec.Code)
		var got CompareResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.True(t, got.HashMatched)
		assert.Empty(t, got.DiffData)
		assert.Equal(t, screenshot.Equal, got.Outcome)
	})

	t.Run("Different", func(t *testing.T) {
		recorder := &report.Recorder{}
		rec := httptest.NewRecorder()
		newHandler(t, recorder)(rec, newCompareRequest(t, map[string]string{
			"message": "header changed",
			"context": "Home Page",
			"method":  "header",
		}, map[string][]byte{
			"actual":   encodePNG(t, red),
			"expected": encodePNG(t, dotted),
		}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"outcome":"different"`)

		var got CompareResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 1, got.DiffPixels)
		assert.Equal(t, "header changed", got.Message)
		assert.Len(t, got.Regions, 1)

		data, err := base64.StdEncoding.DecodeString(got.DiffData)
		require.NoError(t, err)
		diff, err := pixel.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, pixel.RGB(0xFEFF00), diff.Get(5, 5))

		attachments := recorder.Attachments()
		require.Len(t, attachments, 1)
		assert.Equal(t, report.Test{Context: "Home Page", Method: "header"}, attachments[0].Test)
		assert.Equal(t, got.ArtifactPath, attachments[0].Path)
	})

	t.Run("MissingExpected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newHandler(t, &report.Recorder{})(rec, newCompareRequest(t, nil, map[string][]byte{
			"actual": encodePNG(t, red),
		}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BodyTooLarge", func(t *testing.T) {
		old := maxBodySize
		maxBodySize = 1 << 10
		t.Cleanup(func() { maxBodySize = old })

		rec := httptest.NewRecorder()
		newHandler(t, &report.Recorder{})(rec, newCompareRequest(t, nil, map[string][]byte{
			"actual":   bytes.Repeat([]byte{0}, 4<<10),
			"expected": encodePNG(t, red),
		}))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("NotAnImage", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newHandler(t, &report.Recorder{})(rec, newCompareRequest(t, nil, map[string][]byte{
			"actual":   []byte("not an image"),
			"expected": encodePNG(t, red),
		}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
