// Package places wraps the Google Places web service: text search, nearby
// search, and detail lookup, with pagination and rate limiting.
package places

import (
	"context"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// maxPages caps how many result pages a single search follows.
const maxPages = 3

// defaultPageDelay is the mandatory wait before requesting a next page.
// The upstream service rejects a page token that is used immediately.
const defaultPageDelay = 2 * time.Second

// Summary is one entry of a search result page.
type Summary struct {
	PlaceID  string
	Name     string
	Location *orb.Point // (lon, lat) when the service returned geometry
}

// Details holds the per-place detail fields.
type Details struct {
	Name             string
	FormattedAddress string
	Phone            string
	Website          string
}

// Client performs Places API operations.
type Client interface {
	// TextSearch runs a free-text query with no location bias.
	TextSearch(ctx context.Context, query string) ([]Summary, error)

	// NearbySearch runs a keyword query biased to a center and radius.
	NearbySearch(ctx context.Context, center orb.Point, radiusM float64, keyword string) ([]Summary, error)

	// Details fetches detail fields for a single place identifier.
	Details(ctx context.Context, placeID string) (*Details, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithPageDelay overrides the inter-page wait. Tests set this to zero.
func WithPageDelay(d time.Duration) Option {
	return func(c *httpClient) {
		c.pageDelay = d
	}
}

// WithRateLimit sets the requests-per-second limit across all calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

type httpClient struct {
	apiKey    string
	baseURL   string
	pageDelay time.Duration
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		pageDelay: defaultPageDelay,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
