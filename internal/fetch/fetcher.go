package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MAAP-Project/hls-stac-parquet/internal/retry"
	"github.com/MAAP-Project/hls-stac-parquet/internal/stac"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// Transient failures (timeouts, connection errors, 5xx, 429) are worth
	// retrying.
	Transient Kind = iota

	// Permanent failures (other 4xx, unparseable documents) are not.
	Permanent
)

func (k Kind) String() string {
	if k == Permanent {
		return "permanent"
	}
	return "transient"
}

// Error is the failure type returned by Fetcher.Fetch. It records the
// link, the classification, and how many attempts were made.
type Error struct {
	Kind     Kind
	Link     string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch: %s failure for %s after %d attempts: %v",
		e.Kind, e.Link, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options configures a Fetcher.
type Options struct {
	// Timeout for individual document requests.
	// Default: 30s
	Timeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Should be at least the scheduler's total concurrency to keep
	// connections reusable.
	// Default: 64
	MaxIdleConnsPerHost int

	// UserAgent is sent on every request when non-empty.
	UserAgent string

	// Retry is the per-document retry policy. Its Retryable predicate is
	// always overridden to retry only transient failures.
	Retry retry.Policy
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:             30 * time.Second,
		MaxIdleConnsPerHost: 64,
		Retry:               retry.DefaultPolicy(),
	}
}

// Fetcher retrieves and parses single STAC item documents.
type Fetcher struct {
	client *http.Client
	opts   Options
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = 64
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}
}

// permanentError marks a failure that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Fetch retrieves one item document. A non-nil error is always *Error.
func (f *Fetcher) Fetch(ctx context.Context, link string) (*stac.Item, error) {
	var item *stac.Item

	policy := f.opts.Retry
	policy.Retryable = func(err error) bool {
		var pe *permanentError
		return !errors.As(err, &pe)
	}

	attempts, err := policy.Do(ctx, func() error {
		var fetchErr error
		item, fetchErr = f.fetchOnce(ctx, link)
		return fetchErr
	})
	if err != nil {
		kind := Transient
		var pe *permanentError
		if errors.As(err, &pe) {
			kind = Permanent
			err = pe.err
		}
		return nil, &Error{Kind: kind, Link: link, Attempts: attempts, Err: err}
	}

	return item, nil
}

// fetchOnce performs a single request and parse attempt. Permanent
// failures are wrapped so the retry predicate can short-circuit.
func (f *Fetcher) fetchOnce(ctx context.Context, link string) (*stac.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, &permanentError{err: fmt.Errorf("create request: %w", err)}
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		err := fmt.Errorf("unexpected status: %s", resp.Status)
		if retryableStatus(resp.StatusCode) {
			return nil, err
		}
		return nil, &permanentError{err: err}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	item, err := stac.ParseItem(body)
	if err != nil {
		return nil, &permanentError{err: err}
	}
	return item, nil
}

// retryableStatus reports whether a non-2xx status is worth another
// attempt.
func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}
