// Package fetch implements outbound document retrieval with bounded retries.
// Transient upstream failures (connection errors, 429 and 5xx responses) are
// retried with exponential backoff; anything else fails fast. All requests
// share a rate limiter so a large candidate batch stays polite to the origin.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.uber.org/fx"
	"golang.org/x/time/rate"

	"github.com/borealgeo/arvault/internal/config"
	"github.com/borealgeo/arvault/pkg/logger"
)

var Module = fx.Module("fetch",
	fx.Provide(NewFetcher),
)

// StatusError reports a non-2xx terminal response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: http %d", e.URL, e.StatusCode)
}

// Result holds a successful fetch. FinalURL is the address after redirects and
// is what candidates are deduplicated and named by.
type Result struct {
	Body     []byte
	FinalURL string
}

// Fetcher issues retrying GETs. Safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	backoffBase time.Duration
	userAgent   string
	log         *slog.Logger
}

// NewFetcher builds a Fetcher from the Fetch config section.
func NewFetcher(cfg *config.Config, log *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Fetch.Timeout,
		},
		limiter:     rate.NewLimiter(rate.Limit(cfg.Fetch.RateLimit), cfg.Fetch.RateBurst),
		maxRetries:  cfg.Fetch.MaxRetries,
		backoffBase: cfg.Fetch.BackoffBase,
		userAgent:   cfg.Fetch.UserAgent,
		log:         log.With(logger.Scope("fetch")),
	}
}

// TransientStatus reports whether a response status is worth retrying. The
// storage transport shares this policy for token-exchange and RPC retries.
func TransientStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Get fetches url, retrying transient failures up to MaxRetries times.
// A timeout counts as a connection failure for retry purposes.
func (f *Fetcher) Get(ctx context.Context, url string) (*Result, error) {
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := f.backoffBase << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		res, retryable, err := f.attempt(ctx, url)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}

		f.log.Debug("retrying fetch",
			slog.String("url", url),
			slog.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}

	return nil, fmt.Errorf("retries exhausted: %w", lastErr)
}

// attempt performs one GET. The second return value reports whether the
// failure is transient.
func (f *Fetcher) attempt(ctx context.Context, url string) (*Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		// Connection failure or request timeout
		if errors.Is(err, context.Canceled) {
			return nil, false, err
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		statusErr := &StatusError{URL: url, StatusCode: resp.StatusCode}
		return nil, TransientStatus(resp.StatusCode), statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{Body: body, FinalURL: finalURL}, false, nil
}
