// Package email discovers contact emails for a set of websites by probing
// each domain's well-known contact pages. Best-effort throughout: a domain
// with no reachable pages simply yields no email.
package email

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultPaths are probed in order before falling back to the homepage.
var DefaultPaths = []string{
	"/contact",
	"/contact-us",
	"/contacten",
	"/about",
	"/over-ons",
	"/impressum",
	"/contact.html",
}

const (
	defaultWorkers   = 8
	defaultTimeout   = 6 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; ProspectBot/1.0)"
)

// Discoverer probes domains for contact emails with a bounded worker pool.
type Discoverer struct {
	client    *http.Client
	workers   int
	paths     []string
	userAgent string
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(d *Discoverer) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithHTTPClient overrides the probe HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(d *Discoverer) {
		d.client = hc
	}
}

// WithPaths overrides the probed contact-page paths.
func WithPaths(paths []string) Option {
	return func(d *Discoverer) {
		if len(paths) > 0 {
			d.paths = paths
		}
	}
}

// NewDiscoverer creates a Discoverer with sensible defaults.
func NewDiscoverer(opts ...Option) *Discoverer {
	d := &Discoverer{
		client:    &http.Client{Timeout: defaultTimeout},
		workers:   defaultWorkers,
		paths:     DefaultPaths,
		userAgent: defaultUserAgent,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Discover dedupes the given website URLs by network domain (first URL
// seen per domain wins) and probes each unique domain concurrently.
// Returns a map of domain to discovered email; domains with no email are
// absent from the map.
func (d *Discoverer) Discover(ctx context.Context, websites []string) map[string]string {
	domains := dedupeByDomain(websites)
	if len(domains) == 0 {
		return nil
	}

	var (
		mu    sync.Mutex
		found = make(map[string]string)
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for domain, site := range domains {
		g.Go(func() error {
			addr, err := d.probeDomain(gCtx, site)
			if err != nil {
				zap.L().Debug("email: domain probe failed",
					zap.String("domain", domain),
					zap.Error(err),
				)
				return nil
			}
			if addr != "" {
				mu.Lock()
				found[domain] = addr
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return found
}

// Domain extracts the network domain from a website URL, or "" when the
// URL does not parse.
func Domain(website string) string {
	u, err := url.Parse(strings.TrimSpace(website))
	if err != nil {
		return ""
	}
	return u.Host
}

// dedupeByDomain keeps the first URL seen for each domain.
func dedupeByDomain(websites []string) map[string]string {
	domains := make(map[string]string)
	for _, w := range websites {
		domain := Domain(w)
		if domain == "" {
			continue
		}
		if _, seen := domains[domain]; !seen {
			domains[domain] = w
		}
	}
	return domains
}

// probeDomain tries each common contact path on the site's root, then the
// homepage. The first email found wins. Per-path errors fall through to
// the next candidate.
func (d *Discoverer) probeDomain(ctx context.Context, site string) (string, error) {
	u, err := url.Parse(site)
	if err != nil {
		return "", err
	}
	base := u.Scheme + "://" + u.Host

	for _, p := range d.paths {
		if addr := d.probePage(ctx, base+p); addr != "" {
			return addr, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return d.probePage(ctx, base+"/"), nil
}
