package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/borealgeo/arvault/internal/fetch"
)

// retryTransport retries transient failures (connection errors, 429 and 5xx
// responses) with exponential backoff. It backs the OAuth2 client, so both the
// token-exchange POST and every store call issued through it get the same
// bounded-retry policy as outbound document fetches.
type retryTransport struct {
	next        http.RoundTripper
	maxRetries  int
	backoffBase time.Duration
}

func newRetryTransport(next http.RoundTripper, maxRetries int, backoffBase time.Duration) *retryTransport {
	return &retryTransport{
		next:        next,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
	}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		if attempt > 0 {
			delay := t.backoffBase << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}

		r, err := t.attemptRequest(req, attempt)
		if err != nil {
			// The body cannot be replayed; surface whatever failed last.
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}

		resp, err := t.next.RoundTrip(r)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = err
			continue
		}

		if fetch.TransientStatus(resp.StatusCode) && attempt < t.maxRetries {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = fmt.Errorf("storage: http %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("storage: retries exhausted: %w", lastErr)
}

// attemptRequest returns the request to send for a given attempt. Retries need
// a fresh body, which is only possible when the request carries GetBody.
func (t *retryTransport) attemptRequest(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 {
		return req, nil
	}
	if req.Body != nil && req.GetBody == nil {
		return nil, fmt.Errorf("storage: request body cannot be replayed")
	}

	r := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("storage: replay request body: %w", err)
		}
		r.Body = body
	}
	return r, nil
}
