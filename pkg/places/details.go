package places

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

type detailsResponse struct {
	Result struct {
		Name                 string `json:"name"`
		FormattedAddress     string `json:"formatted_address"`
		FormattedPhoneNumber string `json:"formatted_phone_number"`
		Website              string `json:"website"`
	} `json:"result"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

func (c *httpClient) Details(ctx context.Context, placeID string) (*Details, error) {
	if placeID == "" {
		return nil, eris.New("places: place id is required")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: rate limit")
	}

	params := url.Values{
		"place_id": {placeID},
		"fields":   {"name,formatted_address,formatted_phone_number,website"},
		"key":      {c.apiKey},
	}

	reqURL := c.baseURL + "/details/json?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: build details request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: details request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: details returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read details response")
	}

	var dr detailsResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, eris.Wrap(err, "places: parse details response")
	}

	if dr.Status != "OK" {
		return nil, eris.Errorf("places: details status %s: %s", dr.Status, dr.ErrorMessage)
	}

	return &Details{
		Name:             dr.Result.Name,
		FormattedAddress: dr.Result.FormattedAddress,
		Phone:            dr.Result.FormattedPhoneNumber,
		Website:          dr.Result.Website,
	}, nil
}
