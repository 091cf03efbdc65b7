package routes

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"screenshot-assertion/internal/assert"
	diffimage "screenshot-assertion/internal/diff/image"
	"screenshot-assertion/internal/myhttp"
	"screenshot-assertion/internal/pixel"
	"screenshot-assertion/internal/report"
)

const maxMemory = 32 << 20

// maxBodySize caps the whole multipart body; parts beyond maxMemory spill to
// temporary files.
var maxBodySize int64 = 64 << 20

type CompareResponse struct {
	Outcome      assert.Outcome        `json:"outcome"`
	HashMatched  bool                  `json:"hashMatched"`
	DiffPixels   int                   `json:"diffPixels,omitempty"`
	DimDiffer    bool                  `json:"dimDiffer,omitempty"`
	Regions      []diffimage.Rectangle `json:"regions,omitempty"`
	DiffData     string                `json:"diffData,omitempty"`
	ArtifactPath string                `json:"artifactPath,omitempty"`
	Message      string                `json:"message,omitempty"`
}

type Comparator interface {
	CompareBytes(ctx context.Context, actualData []byte, expectedData []byte, message string) (*assert.Result, error)
}

// Compare accepts a multipart form with "actual" and "expected" image parts
// and optional "message", "context" and "method" fields. A mismatch is a
// successful response with outcome "different".
func Compare(comparator Comparator, comparisons metric.Int64Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := myhttp.Logger(r.Context())

		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		actualData, err := readFormFile(r.MultipartForm, "actual")
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		expectedData, err := readFormFile(r.MultipartForm, "expected")
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		ctx := report.WithTest(r.Context(), report.Test{
			Context: r.FormValue("context"),
			Method:  r.FormValue("method"),
		})
		result, err := comparator.CompareBytes(ctx, actualData, expectedData, r.FormValue("message"))
		if err != nil && !errors.Is(err, assert.ErrMismatch) {
			if errors.Is(err, pixel.ErrDecode) {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			logger.Error("failed to compare screenshots", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		comparisons.Add(r.Context(), 1, metric.WithAttributes(
			attribute.Key("outcome").String(result.Outcome.String()),
		))

		response := CompareResponse{
			Outcome:      result.Outcome,
			HashMatched:  result.HashMatched,
			DiffPixels:   result.DiffPixels,
			DimDiffer:    result.DimDiffer,
			Regions:      result.Regions,
			ArtifactPath: result.ArtifactPath,
			Message:      result.Message,
		}
		if result.Diff != nil {
			var buffer bytes.Buffer
			if err := result.Diff.EncodePNG(&buffer); err != nil {
				logger.Error("failed to encode diff image", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			response.DiffData = base64.StdEncoding.EncodeToString(buffer.Bytes())
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error("failed to encode response", "error", err)
		}
	}
}

func readFormFile(form *multipart.Form, key string) ([]byte, error) {
	headers := form.File[key]
	if len(headers) == 0 {
		return nil, http.ErrMissingFile
	}
	f, err := headers[0].Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
