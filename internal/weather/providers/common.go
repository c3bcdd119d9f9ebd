package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// RequestError is returned when a provider request does not produce a usable response.
type RequestError struct {
	Provider   string
	City       string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request for %q failed with status %d: %v", e.Provider, e.City, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request for %q failed: %v", e.Provider, e.City, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// statusError carries the HTTP status of a rejected response.
type statusError struct {
	StatusCode int
	Status     string
	kind       error
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: %s", e.kind, e.Status)
}

func (e *statusError) Unwrap() error {
	return e.kind
}

// newCircuitBreaker opens after maxFailures consecutive transport, 429 or 5xx failures.
// Client errors such as an unknown city do not count.
func newCircuitBreaker(name string, maxFailures int) *gobreaker.CircuitBreaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
	})
}

// doRequest executes a single request through the circuit breaker.
// There is no retry: the first failure is returned to the caller.
// On success the caller owns the response body.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	req *http.Request,
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			discard(resp)
			return nil, &statusError{StatusCode: resp.StatusCode, Status: resp.Status, kind: errRateLimited}
		}
		if resp.StatusCode >= 500 {
			discard(resp)
			return nil, &statusError{StatusCode: resp.StatusCode, Status: resp.Status, kind: errServerError}
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		discard(resp)
		return nil, &statusError{StatusCode: resp.StatusCode, Status: resp.Status, kind: errUnexpected}
	}

	return resp, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
