package cmr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/MAAP-Project/hls-stac-parquet/internal/retry"
	"github.com/MAAP-Project/hls-stac-parquet/internal/stac"
)

// Common errors.
var (
	// ErrCatalogUnavailable indicates the catalog endpoint was unreachable
	// or kept returning errors after the configured retries.
	ErrCatalogUnavailable = errors.New("cmr: catalog unavailable")

	// ErrMalformedResponse indicates the catalog returned a body that could
	// not be parsed as a granule search response.
	ErrMalformedResponse = errors.New("cmr: malformed catalog response")
)

// maxPageSize is the largest page the CMR search API accepts.
const maxPageSize = 2000

// DefaultBaseURL is the production CMR search endpoint.
const DefaultBaseURL = "https://cmr.earthdata.nasa.gov/search"

// searchAfterHeader carries the pagination cursor in both directions.
const searchAfterHeader = "CMR-Search-After"

// Options configures the catalog client.
type Options struct {
	// BaseURL is the CMR search endpoint.
	// Default: DefaultBaseURL
	BaseURL string

	// ClientID is sent as the Client-Id header on every request.
	ClientID string

	// PageSize is the number of results per page, clamped to [1, 2000].
	// Default: 2000
	PageSize int

	// Timeout for individual page requests.
	// Default: 30s
	Timeout time.Duration

	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 16
	MaxIdleConnsPerHost int

	// Retry is the per-page retry policy. Its Retryable predicate is
	// always overridden to retry transport errors and 5xx responses.
	Retry retry.Policy
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		BaseURL:             DefaultBaseURL,
		PageSize:            maxPageSize,
		Timeout:             30 * time.Second,
		MaxIdleConnsPerHost: 16,
		Retry:               retry.DefaultPolicy(),
	}
}

// Client issues paginated granule searches against the CMR catalog.
type Client struct {
	client *http.Client
	opts   Options
	logger *zap.Logger
}

// NewClient creates a catalog client with the given options.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = maxPageSize
	}
	if opts.PageSize > maxPageSize {
		opts.PageSize = maxPageSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxIdleConns:        opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts:   opts,
		logger: logger,
	}
}

// SearchParams identify one granule search: a collection, a calendar day,
// and an optional bounding box. The temporal window covers the whole day
// (00:00:00 through 23:59:59 UTC).
type SearchParams struct {
	Collection  Collection
	Date        Date
	BoundingBox *stac.BBox
}

// Search starts a paginated granule search. The returned Pages yields
// result batches until the catalog stops returning a continuation token.
func (c *Client) Search(params SearchParams) *Pages {
	return &Pages{client: c, params: params}
}

// Pages is the pagination state machine for one search: it holds the
// current continuation cursor and termination flag. A Pages is finite and
// cannot be restarted mid-stream; call Client.Search for a fresh sequence.
type Pages struct {
	client      *Client
	params      SearchParams
	searchAfter string
	exhausted   bool
}

// searchResponse is the wire shape of a granule search page.
type searchResponse struct {
	Feed *struct {
		Entry []Granule `json:"entry"`
	} `json:"feed"`
}

// Next returns the next page of granule results. It returns io.EOF once
// the catalog has been drained. Transport errors and 5xx responses are
// retried per the client's policy before failing with ErrCatalogUnavailable.
func (p *Pages) Next(ctx context.Context) ([]Granule, error) {
	if p.exhausted {
		return nil, io.EOF
	}

	var (
		granules  []Granule
		nextToken string
	)

	policy := p.client.opts.Retry
	policy.Retryable = func(err error) bool {
		var se *statusError
		if errors.As(err, &se) {
			return se.code >= 500
		}
		// Transport-level failure: worth another attempt.
		return !errors.Is(err, ErrMalformedResponse)
	}

	attempts, err := policy.Do(ctx, func() error {
		var pageErr error
		granules, nextToken, pageErr = p.client.fetchPage(ctx, p.params, p.searchAfter)
		return pageErr
	})
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: after %d attempts: %v", ErrCatalogUnavailable, attempts, err)
	}

	if nextToken == "" {
		p.exhausted = true
	}
	p.searchAfter = nextToken

	return granules, nil
}

// statusError is a non-2xx catalog response.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.status)
}

// fetchPage performs one page request and returns its results and the next
// continuation token (empty when the sequence is done).
func (c *Client) fetchPage(ctx context.Context, params SearchParams, searchAfter string) ([]Granule, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(params), nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	if c.opts.ClientID != "" {
		req.Header.Set("Client-Id", c.opts.ClientID)
	}
	if searchAfter != "" {
		req.Header.Set(searchAfterHeader, searchAfter)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, "", &statusError{code: resp.StatusCode, status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if parsed.Feed == nil {
		return nil, "", fmt.Errorf("%w: missing feed", ErrMalformedResponse)
	}

	return parsed.Feed.Entry, resp.Header.Get(searchAfterHeader), nil
}

// searchURL builds the granule search URL for the given parameters.
func (c *Client) searchURL(params SearchParams) string {
	day := params.Date.Time()
	start := day.Format("2006-01-02T15:04:05Z")
	end := day.Add(24*time.Hour - time.Second).Format("2006-01-02T15:04:05Z")

	q := url.Values{}
	q.Set("collection_concept_id", params.Collection.ConceptID())
	q.Set("temporal", start+","+end)
	q.Set("page_size", strconv.Itoa(c.opts.PageSize))
	if params.BoundingBox != nil {
		q.Set("bounding_box", params.BoundingBox.String())
	}

	return c.opts.BaseURL + "/granules.json?" + q.Encode()
}

// ExtractItemLinks extracts one item document link per granule for the
// requested protocol. Granules with no matching link are counted in
// skipped, not treated as fatal.
func ExtractItemLinks(granules []Granule, protocol Protocol) (links []string, skipped int) {
	for i := range granules {
		if link, ok := granules[i].ItemLink(protocol); ok {
			links = append(links, link)
		} else {
			skipped++
		}
	}
	return links, skipped
}
