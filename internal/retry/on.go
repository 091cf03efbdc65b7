package retry

import (
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// On selects which outcomes are retried, using Envoy's retry-on vocabulary.
type On struct {
	FiveXX         bool
	GatewayError   bool
	ConnectFailure bool
	Retriable4xx   bool
	StatusCodes    []int
}

func DefaultOn() *On {
	return &On{
		GatewayError:   true,
		ConnectFailure: true,
		Retriable4xx:   true,
	}
}

// ParseOn reads a comma separated list such as "5xx,connect-failure,429".
func ParseOn(s string) (*On, error) {
	o := &On{}
	for _, token := range strings.Split(s, ",") {
		switch token = strings.TrimSpace(token); token {
		case "":
		case "5xx":
			o.FiveXX = true
		case "gateway-error":
			o.GatewayError = true
		case "connect-failure":
			o.ConnectFailure = true
		case "retriable-4xx":
			o.Retriable4xx = true
		default:
			statusCode, err := strconv.Atoi(token)
			if err != nil {
				return nil, xerrors.Errorf("invalid retry-on value: %s", token)
			}
			o.StatusCodes = append(o.StatusCodes, statusCode)
		}
	}
	return o, nil
}

// RetryResponse follows https://github.com/envoyproxy/envoy/blob/70d6ec1df6384118cf2fa2f02c0041edb76b2377/source/common/router/retry_state_impl.cc#L387
func (o *On) RetryResponse(response *http.Response) bool {
	code := response.StatusCode
	switch {
	case o.FiveXX && code >= 500 && code < 600:
		return true
	case o.GatewayError && code >= 502 && code < 505:
		return true
	case o.Retriable4xx && code == http.StatusConflict:
		return true
	}
	return slices.Contains(o.StatusCodes, code)
}

// RetryError treats temporary network errors and unexpected EOFs as
// connection failures.
func (o *On) RetryError(err error) bool {
	if !o.ConnectFailure && !o.FiveXX {
		return false
	}
	type temporary interface{ Temporary() bool }
	var terr temporary
	return (errors.As(err, &terr) && terr.Temporary()) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
