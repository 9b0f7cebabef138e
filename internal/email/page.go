package email

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// probePage fetches one page and extracts an email from it. Any error,
// timeout, or non-200 response yields "".
func (d *Discoverer) probePage(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return ""
	}

	return ExtractEmail(body)
}

// ExtractEmail pulls an email address out of an HTML page. A mailto link
// target wins over a regex scan of the page text.
func ExtractEmail(body []byte) string {
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		var mailto string
		doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, ok := sel.Attr("href")
			if !ok {
				return true
			}
			addr := strings.TrimPrefix(href, "mailto:")
			// Drop ?subject=... and friends.
			if i := strings.IndexByte(addr, '?'); i >= 0 {
				addr = addr[:i]
			}
			addr = strings.TrimSpace(addr)
			if addr != "" {
				mailto = addr
				return false
			}
			return true
		})
		if mailto != "" {
			return mailto
		}
	}

	return emailRe.FindString(string(body))
}
