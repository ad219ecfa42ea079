package anilist

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// StatusError reports a non-200 HTTP response.
type StatusError struct {
	Code       int
	RetryAfter time.Duration
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("anilist returned %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("anilist returned %d", e.Code)
}

// errDecode marks responses that could not be parsed; retrying will not help.
var errDecode = errors.New("decode anilist response")

// IsRetriable reports whether err represents a transient condition that
// warrants an automatic retry (rate limits, timeouts, server errors,
// connection failures).
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, errDecode) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusRequestTimeout, statusErr.Code == http.StatusTooManyRequests:
			return true
		case statusErr.Code >= 500:
			return true
		default:
			return false
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// Transport failures from http.Client surface as *url.Error.
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RetryAfter returns the wait AniList asked for with a 429 or 503, or zero.
func RetryAfter(err error) time.Duration {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.RetryAfter
	}
	return 0
}
