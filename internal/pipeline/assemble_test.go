package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightlane/prospect-cli/internal/email"
	"github.com/brightlane/prospect-cli/internal/model"
	"github.com/brightlane/prospect-cli/pkg/places"
)

// fakePlaces is a scriptable places.Client. Nearby responses are keyed by
// a caller-supplied function so grid tests can vary results per cell.
type fakePlaces struct {
	mu sync.Mutex

	textQuery     string
	textSummaries []places.Summary
	textErr       error

	nearby      func(center orb.Point) []places.Summary
	nearbyCalls int

	details    map[string]*places.Details
	detailsErr map[string]error
}

func (f *fakePlaces) TextSearch(_ context.Context, query string) ([]places.Summary, error) {
	f.mu.Lock()
	f.textQuery = query
	f.mu.Unlock()
	return f.textSummaries, f.textErr
}

func (f *fakePlaces) NearbySearch(_ context.Context, center orb.Point, _ float64, _ string) ([]places.Summary, error) {
	f.mu.Lock()
	f.nearbyCalls++
	f.mu.Unlock()
	if f.nearby == nil {
		return nil, nil
	}
	return f.nearby(center), nil
}

func (f *fakePlaces) Details(_ context.Context, placeID string) (*places.Details, error) {
	if err, ok := f.detailsErr[placeID]; ok {
		return nil, err
	}
	if d, ok := f.details[placeID]; ok {
		return d, nil
	}
	return nil, eris.Errorf("no such place %s", placeID)
}

func point(lat, lon float64) *orb.Point {
	p := orb.Point{lon, lat}
	return &p
}

func newTestAssembler(fp *fakePlaces) *Assembler {
	return NewAssembler(fp, email.NewDiscoverer())
}

func TestRunTypedFiltersByPlace(t *testing.T) {
	fp := &fakePlaces{
		textSummaries: []places.Summary{
			{PlaceID: "p1", Name: "Cafe Markt", Location: point(51.69, 5.30)},
			{PlaceID: "p2", Name: "Cafe Elders"},
		},
		details: map[string]*places.Details{
			"p1": {Name: "Cafe Markt", FormattedAddress: "Marktstraat 1, Den Bosch, Netherlands", Phone: "073-1111111"},
			"p2": {Name: "Cafe Elders", FormattedAddress: "Hoofdstraat 2, Eindhoven, Netherlands"},
		},
	}
	asm := newTestAssembler(fp)
	sc := model.NewTypedSearch("cafe", "Den Bosch")

	records, err := asm.Run(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, "cafe in Den Bosch", fp.textQuery)

	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "Cafe Markt", r.Name)
	assert.Equal(t, "073-1111111", r.Phone)
	assert.Equal(t, sc.Label(), r.InputContext)
	assert.Equal(t, model.StatusNew, r.Status)
	require.NotNil(t, r.Latitude)
	assert.InDelta(t, 51.69, *r.Latitude, 1e-9)
}

func TestRunTypedValidation(t *testing.T) {
	asm := newTestAssembler(&fakePlaces{})

	_, err := asm.Run(context.Background(), model.SearchContext{Mode: model.ModeTyped, Category: "cafe"})
	require.Error(t, err)

	_, err = asm.Run(context.Background(), model.SearchContext{Mode: model.ModeMap, Category: "cafe", RadiusM: 500})
	require.ErrorContains(t, err, "no location selected")
}

func TestRunEmptyResultIsNotAnError(t *testing.T) {
	asm := newTestAssembler(&fakePlaces{})

	records, err := asm.Run(context.Background(), model.NewTypedSearch("cafe", "Den Bosch"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRunKeepsPartialResults(t *testing.T) {
	fp := &fakePlaces{
		textSummaries: []places.Summary{{PlaceID: "p1", Name: "Cafe Markt"}},
		textErr:       eris.New("page 2 fetch failed"),
		details: map[string]*places.Details{
			"p1": {Name: "Cafe Markt", FormattedAddress: "Marktstraat 1, Den Bosch, Netherlands"},
		},
	}
	asm := newTestAssembler(fp)

	records, err := asm.Run(context.Background(), model.NewTypedSearch("cafe", "Den Bosch"))
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestRunTypedSearchFailureNoResults(t *testing.T) {
	fp := &fakePlaces{textErr: eris.New("REQUEST_DENIED")}
	asm := newTestAssembler(fp)

	_, err := asm.Run(context.Background(), model.NewTypedSearch("cafe", "Den Bosch"))
	require.ErrorContains(t, err, "places search")
}

func TestGridSearchDedupesAndFilters(t *testing.T) {
	centerLat, centerLon := 52.0, 5.0
	fp := &fakePlaces{
		// Every cell reports the same near place plus a far one and an
		// entry without geometry.
		nearby: func(orb.Point) []places.Summary {
			return []places.Summary{
				{PlaceID: "near", Name: "Cafe Near", Location: point(centerLat, centerLon)},
				{PlaceID: "far", Name: "Cafe Far", Location: point(centerLat+0.05, centerLon)},
				{PlaceID: "nowhere", Name: "Cafe Nowhere"},
			}
		},
		details: map[string]*places.Details{
			"near": {Name: "Cafe Near", FormattedAddress: "Dorpsstraat 1"},
		},
		detailsErr: map[string]error{},
	}
	asm := newTestAssembler(fp)
	sc := model.NewMapSearch("cafe", centerLat, centerLon, 1000)

	records, err := asm.Run(context.Background(), sc)
	require.NoError(t, err)

	// Dedupe collapses the repeated place across cells; the 0.05-degree
	// offset (~5.5 km) falls outside the 1 km radius; no geometry means
	// no distance check is possible.
	require.Len(t, records, 1)
	assert.Equal(t, "Cafe Near", records[0].Name)
	assert.Greater(t, fp.nearbyCalls, 1)
}

func TestGridSearchDetailFailureDegrades(t *testing.T) {
	fp := &fakePlaces{
		nearby: func(orb.Point) []places.Summary {
			return []places.Summary{{PlaceID: "p1", Name: "Snackbar Summary", Location: point(52.0, 5.0)}}
		},
		detailsErr: map[string]error{"p1": eris.New("NOT_FOUND")},
	}
	asm := newTestAssembler(fp)

	records, err := asm.Run(context.Background(), model.NewMapSearch("snackbar", 52.0, 5.0, 1000))
	require.NoError(t, err)
	require.Len(t, records, 1)

	// No detail fields, so the summary name carries the record.
	assert.Equal(t, "Snackbar Summary", records[0].Name)
	assert.Empty(t, records[0].Address)
	assert.Empty(t, records[0].Phone)
}

func TestRunAppliesDiscoveredEmails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/contact" {
			fmt.Fprint(w, `<html><body><a href="mailto:info@luna.example">Mail</a></body></html>`)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	fp := &fakePlaces{
		textSummaries: []places.Summary{{PlaceID: "p1", Name: "IJssalon Luna"}},
		details: map[string]*places.Details{
			"p1": {
				Name:             "IJssalon Luna",
				FormattedAddress: "Markt 1, Den Bosch, Netherlands",
				Website:          srv.URL,
			},
		},
	}
	asm := NewAssembler(fp, email.NewDiscoverer(email.WithHTTPClient(srv.Client())))

	records, err := asm.Run(context.Background(), model.NewTypedSearch("ice cream", "Den Bosch"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "info@luna.example", records[0].Email)
}

func TestRunNoWebsitesSkipsDiscovery(t *testing.T) {
	fp := &fakePlaces{
		textSummaries: []places.Summary{{PlaceID: "p1", Name: "Cafe Markt"}},
		details: map[string]*places.Details{
			"p1": {Name: "Cafe Markt", FormattedAddress: "Marktstraat 1, Den Bosch, Netherlands"},
		},
	}
	asm := newTestAssembler(fp)

	records, err := asm.Run(context.Background(), model.NewTypedSearch("cafe", "Den Bosch"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Email)
}
