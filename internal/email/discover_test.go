package email

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "mailto wins over text",
			body: `<p>other@text.nl</p><a href="mailto:info@shop.nl">Mail us</a>`,
			want: "info@shop.nl",
		},
		{
			name: "mailto query string stripped",
			body: `<a href="mailto:sales@shop.nl?subject=Hello">Mail</a>`,
			want: "sales@shop.nl",
		},
		{
			name: "regex fallback",
			body: `<p>Reach us at support@example.com for help.</p>`,
			want: "support@example.com",
		},
		{
			name: "empty mailto falls back to text scan",
			body: `<a href="mailto:">Mail</a><p>contact@site.org</p>`,
			want: "contact@site.org",
		},
		{name: "no email", body: `<p>nothing here</p>`, want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractEmail([]byte(tc.body)))
		})
	}
}

func TestDiscoverProbesCommonPathsFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contact":
			http.NotFound(w, r)
		case "/contact-us":
			_, _ = w.Write([]byte(`<a href="mailto:info@shop.nl">mail</a>`))
		default:
			_, _ = w.Write([]byte(`homepage@shop.nl`))
		}
	}))
	defer srv.Close()

	d := NewDiscoverer(WithHTTPClient(srv.Client()))
	found := d.Discover(context.Background(), []string{srv.URL + "/some/page"})

	domain := Domain(srv.URL)
	require.Contains(t, found, domain)
	assert.Equal(t, "info@shop.nl", found[domain], "path probe beats homepage")
}

func TestDiscoverFallsBackToHomepage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<p>home@shop.nl</p>`))
	}))
	defer srv.Close()

	d := NewDiscoverer(WithHTTPClient(srv.Client()))
	found := d.Discover(context.Background(), []string{srv.URL})

	assert.Equal(t, "home@shop.nl", found[Domain(srv.URL)])
}

func TestDiscoverNoEmailAnywhere(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewDiscoverer(WithHTTPClient(srv.Client()))
	found := d.Discover(context.Background(), []string{srv.URL})

	assert.Empty(t, found, "unreachable pages yield no email, not an error")
}

func TestDiscoverDedupesByDomain(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/contact" {
			hits.Add(1)
			_, _ = w.Write([]byte(`dedup@shop.nl`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := NewDiscoverer(WithHTTPClient(srv.Client()), WithWorkers(2))
	found := d.Discover(context.Background(), []string{
		srv.URL + "/a",
		srv.URL + "/b",
		srv.URL + "/c",
	})

	assert.Len(t, found, 1)
	assert.Equal(t, int32(1), hits.Load(), "one probe per domain")
}

func TestDiscoverSkipsUnparsableURLs(t *testing.T) {
	d := NewDiscoverer()
	found := d.Discover(context.Background(), []string{"::not a url::", ""})
	assert.Empty(t, found)
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "shop.nl", Domain("https://shop.nl/contact"))
	assert.Equal(t, "www.shop.nl", Domain("http://www.shop.nl"))
	assert.Empty(t, Domain("::bad::"))
}
