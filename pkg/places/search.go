package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

// searchResponse is the JSON shape shared by text and nearby search.
type searchResponse struct {
	Results       []searchResult `json:"results"`
	NextPageToken string         `json:"next_page_token"`
	Status        string         `json:"status"`
	ErrorMessage  string         `json:"error_message"`
}

type searchResult struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func (c *httpClient) TextSearch(ctx context.Context, query string) ([]Summary, error) {
	params := url.Values{"query": {query}}
	return c.search(ctx, "/textsearch/json", params)
}

func (c *httpClient) NearbySearch(ctx context.Context, center orb.Point, radiusM float64, keyword string) ([]Summary, error) {
	params := url.Values{
		"keyword":  {keyword},
		"location": {fmt.Sprintf("%v,%v", center.Lat(), center.Lon())},
		"radius":   {fmt.Sprintf("%.0f", radiusM)},
	}
	return c.search(ctx, "/nearbysearch/json", params)
}

// search issues a paged search, following the next-page token up to
// maxPages with the mandatory inter-page delay between requests.
func (c *httpClient) search(ctx context.Context, endpoint string, params url.Values) ([]Summary, error) {
	var summaries []Summary
	pageToken := ""

	for page := 0; page < maxPages; page++ {
		if page > 0 {
			if err := sleep(ctx, c.pageDelay); err != nil {
				return summaries, eris.Wrap(err, "places: page delay")
			}
		}

		resp, err := c.fetchPage(ctx, endpoint, params, pageToken)
		if err != nil {
			return summaries, err
		}

		for _, r := range resp.Results {
			s := Summary{PlaceID: r.PlaceID, Name: r.Name}
			if r.Geometry.Location.Lat != 0 || r.Geometry.Location.Lng != 0 {
				p := orb.Point{r.Geometry.Location.Lng, r.Geometry.Location.Lat}
				s.Location = &p
			}
			summaries = append(summaries, s)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return summaries, nil
}

func (c *httpClient) fetchPage(ctx context.Context, endpoint string, params url.Values, pageToken string) (*searchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: rate limit")
	}

	vals := url.Values{"key": {c.apiKey}}
	for k, vs := range params {
		vals[k] = vs
	}
	if pageToken != "" {
		vals.Set("pagetoken", pageToken)
	}

	reqURL := c.baseURL + endpoint + "?" + vals.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: search request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, eris.Wrap(err, "places: parse response")
	}

	// ZERO_RESULTS is a valid empty page, not a failure.
	if sr.Status != "OK" && sr.Status != "ZERO_RESULTS" {
		return nil, eris.Errorf("places: search status %s: %s", sr.Status, sr.ErrorMessage)
	}

	return &sr, nil
}
