package signpath

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds transient-failure retries for a single HTTP exchange.
// It is an immutable value shared read-only by every request in a run.
type RetryPolicy struct {
	// MaxRetries is the maximum number of re-issued attempts after the
	// initial request. MaxRetries = 2 means at most 3 requests on the wire.
	MaxRetries int

	// RetryTimeout is the wall-clock budget for all attempts combined.
	// The deadline is computed once when the exchange starts.
	RetryTimeout time.Duration

	// RetryInterval is the fixed delay between consecutive attempts.
	// Deliberately not exponential: operators tune this constant against
	// the service's known recovery behavior.
	RetryInterval time.Duration
}

// retryableStatusCodes is the process-wide set of HTTP statuses expected
// to self-resolve and worth retrying.
var retryableStatusCodes = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// ErrRetryInterrupted reports that the wait between retry attempts was
// canceled. It is kept distinct from HTTP failures so callers can tell an
// operator abort apart from a network problem.
var ErrRetryInterrupted = errors.New("retry wait interrupted")

// retryTransport re-issues requests on transient failures. When the retry
// budget is exhausted it returns the last observed response or error
// unchanged; classification of that result stays with the caller.
type retryTransport struct {
	base   http.RoundTripper
	policy RetryPolicy
	log    *zap.SugaredLogger
}

func newRetryTransport(base http.RoundTripper, policy RetryPolicy, log *zap.SugaredLogger) *retryTransport {
	return &retryTransport{base: base, policy: policy, log: log}
}

// RoundTrip executes the request, retrying on HTTP 429/502/503/504 and on
// connection-level errors while attempts < MaxRetries and the deadline has
// not passed. Either bound alone stops retrying.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	deadline := time.Now().Add(t.policy.RetryTimeout)
	attempts := 0

	for {
		if attempts > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body for retry: %w", err)
			}
			req.Body = body
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			if !t.canRetry(req, attempts, deadline) {
				return nil, err
			}
			attempts++
			t.log.Warnw("request failed, retrying", "url", req.URL.String(), "error", err)
			if werr := t.wait(req); werr != nil {
				return nil, werr
			}
			continue
		}

		if !retryableStatusCodes[resp.StatusCode] {
			return resp, nil
		}

		if !t.canRetry(req, attempts, deadline) {
			// Budget exhausted: surface the final response as-is.
			return resp, nil
		}

		attempts++
		t.log.Warnw("retryable status, retrying", "url", req.URL.String(), "status", resp.StatusCode)
		drainAndClose(resp)
		if werr := t.wait(req); werr != nil {
			return nil, werr
		}
	}
}

// canRetry checks both retry bounds. A request whose body was consumed and
// cannot be replayed is never retried.
func (t *retryTransport) canRetry(req *http.Request, attempts int, deadline time.Time) bool {
	if req.Body != nil && req.GetBody == nil {
		return false
	}
	return attempts < t.policy.MaxRetries && time.Now().Before(deadline)
}

// wait sleeps for the fixed retry interval on the calling goroutine. A
// canceled request context surfaces as ErrRetryInterrupted.
func (t *retryTransport) wait(req *http.Request) error {
	t.log.Debugw("waiting before next retry", "interval", t.policy.RetryInterval)

	timer := time.NewTimer(t.policy.RetryInterval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-req.Context().Done():
		return fmt.Errorf("%w: %v", ErrRetryInterrupted, req.Context().Err())
	}
}

// drainAndClose consumes the response body so the underlying connection
// can be reused for the next attempt.
func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
