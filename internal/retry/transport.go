package retry

import (
	"io"
	"net/http"
	"time"
)

// Transport retries requests according to RetryOn and RetryStrategy.
// Requests with a body are retried only when GetBody is set.
type Transport struct {
	Base          http.RoundTripper
	RetryStrategy Strategy
	RetryOn       *On
}

func (t *Transport) RoundTrip(request *http.Request) (*http.Response, error) {
	ctx := request.Context()
	rewindable := request.Body == nil || request.Body == http.NoBody || request.GetBody != nil

	attempt := request
	for n := uint(0); ; n++ {
		response, err := t.base().RoundTrip(attempt)

		sleep, exceeded := t.retryStrategy().Sleep(n)
		if exceeded || !rewindable || !t.shouldRetry(response, err) {
			return response, err
		}
		if response != nil {
			_, _ = io.Copy(io.Discard, response.Body)
			_ = response.Body.Close()
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt = request.Clone(ctx)
		if request.GetBody != nil {
			body, err := request.GetBody()
			if err != nil {
				return nil, err
			}
			attempt.Body = body
		}
	}
}

func (t *Transport) shouldRetry(response *http.Response, err error) bool {
	if t.RetryOn == nil {
		return false
	}
	if err != nil {
		return t.RetryOn.RetryError(err)
	}
	return t.RetryOn.RetryResponse(response)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) retryStrategy() Strategy {
	if t.RetryStrategy != nil {
		return t.RetryStrategy
	}
	return Never
}
