package pncp

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCancelled is returned when the caller abandoned the query. It is never
// shown to users as a failure.
var ErrCancelled = errors.New("query cancelled")

const maxBodySnippet = 220

// TimeoutError reports a request that exceeded the per-request timeout.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("PNCP did not respond within %s (timeout)", e.Timeout)
}

// Unwrap lets errors.Is match context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// HTTPError reports a non-2xx upstream response.
type HTTPError struct {
	URL    string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d - %s", e.Status, e.Body)
}

// ParseError reports a 2xx response whose body is not valid JSON. It is
// handled like an HTTPError.
type ParseError struct {
	URL    string
	Status int
	Body   string
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON (HTTP %d): %v", e.Status, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// RequestError reports a transport failure that was neither a timeout nor a
// cancellation.
type RequestError struct {
	URL   string
	Cause error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Cause)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// IsCancelled reports whether err is a caller cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsTimeout reports whether err is a per-request timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsUpstream reports whether err came from a bad upstream response or a
// failed transport.
func IsUpstream(err error) bool {
	var (
		he *HTTPError
		pe *ParseError
		re *RequestError
	)
	return errors.As(err, &he) || errors.As(err, &pe) || errors.As(err, &re)
}

// Cancelled wraps ctx.Err() in ErrCancelled.
func Cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return ErrCancelled
}

func snippet(body []byte) string {
	r := []rune(string(body))
	if len(r) > maxBodySnippet {
		r = r[:maxBodySnippet]
	}
	return string(r)
}
