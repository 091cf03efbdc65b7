// Package callback posts comparison results to an HTTP endpoint.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/xerrors"

	"screenshot-assertion/internal/retry"
)

type Client struct {
	url        string
	httpClient *http.Client
}

type Config struct {
	URL     string
	RetryOn string
	// MaxRetries of zero disables retries.
	MaxRetries uint
	Timeout    time.Duration
}

func New(c Config) (*Client, error) {
	retryOn, err := retry.ParseOn(c.RetryOn)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse retry-on: %w", err)
	}

	return &Client{
		url: c.URL,
		httpClient: &http.Client{
			Timeout: c.Timeout,
			Transport: otelhttp.NewTransport(&retry.Transport{
				Base: http.DefaultTransport,
				RetryStrategy: &retry.ExponentialBackOff{
					Base:       100 * time.Millisecond,
					Max:        5 * time.Second,
					MaxRetries: c.MaxRetries,
				},
				RetryOn: retryOn,
			}),
		},
	}, nil
}

// Post sends v as JSON and expects a 2xx response.
func (c *Client) Post(ctx context.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return xerrors.Errorf("failed to marshal callback payload: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return xerrors.Errorf("failed to create callback request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return xerrors.Errorf("failed to post callback: %w", err)
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return xerrors.Errorf("callback returned %s", response.Status)
	}
	return nil
}
