package rmp

import (
	"errors"
	"fmt"
)

// ErrUpstream is the single failure kind of the review site: transport
// errors, non-2xx statuses and unexpected payloads all match it.
var ErrUpstream = errors.New("rmp upstream unavailable")

// HTTPError reports a non-2xx upstream response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "rmp http error"
	}
	if e.Body == "" {
		return fmt.Sprintf("rmp http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("rmp http error: status=%d body=%s", e.StatusCode, e.Body)
}

// Unwrap lets errors.Is(err, ErrUpstream) match HTTP failures.
func (e *HTTPError) Unwrap() error { return ErrUpstream }

func malformed(what string) error {
	return fmt.Errorf("%w: malformed %s payload", ErrUpstream, what)
}
