// Package pipeline turns a search context into assembled records: places
// fetch, detail enrichment, address filtering, and email discovery.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brightlane/prospect-cli/internal/email"
	"github.com/brightlane/prospect-cli/internal/geo"
	"github.com/brightlane/prospect-cli/internal/match"
	"github.com/brightlane/prospect-cli/internal/model"
	"github.com/brightlane/prospect-cli/pkg/places"
)

// gridConcurrency bounds parallel grid-cell searches. Pagination within
// one cell stays sequential; the page token demands it.
const gridConcurrency = 4

// Assembler combines places data, detail fields, and discovered emails
// into the canonical record shape the reconciliation engine consumes.
type Assembler struct {
	places places.Client
	emails *email.Discoverer
}

// NewAssembler creates an Assembler.
func NewAssembler(pc places.Client, ed *email.Discoverer) *Assembler {
	return &Assembler{places: pc, emails: ed}
}

// Run executes the fetch phase for one search and returns the assembled
// batch. An empty batch is not an error. Upstream failures on individual
// records degrade to empty fields rather than aborting the run.
func (a *Assembler) Run(ctx context.Context, sc model.SearchContext) ([]model.Record, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	var (
		summaries []places.Summary
		err       error
	)
	switch sc.Mode {
	case model.ModeTyped:
		summaries, err = a.places.TextSearch(ctx, sc.Category+" in "+sc.Place)
	case model.ModeMap:
		summaries, err = a.gridSearch(ctx, sc)
	}
	if err != nil {
		if len(summaries) == 0 {
			return nil, eris.Wrap(err, "assemble: places search")
		}
		// Partial page failure: keep what we have.
		zap.L().Warn("assemble: places search degraded",
			zap.String("run_id", sc.RunID),
			zap.Int("results", len(summaries)),
			zap.Error(err),
		)
	}

	if len(summaries) == 0 {
		return nil, nil
	}

	records := a.buildRecords(ctx, sc, summaries)
	a.applyEmails(ctx, records)
	return records, nil
}

// gridSearch fans a nearby search across the sample grid and dedupes
// results by place identifier across cells. Grid cells overlap, so the
// dedupe bounds redundant detail lookups.
func (a *Assembler) gridSearch(ctx context.Context, sc model.SearchContext) ([]places.Summary, error) {
	points := geo.Grid(*sc.Center, sc.RadiusM, geo.DefaultStep(sc.RadiusM))

	var (
		mu      sync.Mutex
		seen    = make(map[string]struct{})
		results []places.Summary
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(gridConcurrency)

	for _, pt := range points {
		g.Go(func() error {
			batch, err := a.places.NearbySearch(gCtx, pt, sc.RadiusM, sc.Category)
			if err != nil {
				zap.L().Warn("assemble: grid cell search failed",
					zap.Float64("lat", pt.Lat()),
					zap.Float64("lon", pt.Lon()),
					zap.Error(err),
				)
			}
			mu.Lock()
			for _, s := range batch {
				if s.PlaceID == "" {
					continue
				}
				if _, dup := seen[s.PlaceID]; dup {
					continue
				}
				seen[s.PlaceID] = struct{}{}
				results = append(results, s)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	// The grid over-covers a bounding square; enforce the circular
	// boundary by true great-circle distance.
	filtered := results[:0]
	for _, s := range results {
		if s.Location == nil {
			continue
		}
		if geo.Distance(*sc.Center, *s.Location) <= sc.RadiusM {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// buildRecords fetches detail fields per summary and assembles records.
// Detail failures are warnings; the record keeps empty fields. In typed
// mode, results whose address does not plausibly belong to the requested
// place are discarded.
func (a *Assembler) buildRecords(ctx context.Context, sc model.SearchContext, summaries []places.Summary) []model.Record {
	now := time.Now()
	label := sc.Label()

	var records []model.Record
	for _, s := range summaries {
		var det places.Details
		if s.PlaceID != "" {
			d, err := a.places.Details(ctx, s.PlaceID)
			if err != nil {
				zap.L().Warn("assemble: detail fetch failed",
					zap.String("place_id", s.PlaceID),
					zap.Error(err),
				)
			} else {
				det = *d
			}
		}

		if sc.Mode == model.ModeTyped && !match.AddressMatchesPlace(det.FormattedAddress, sc.Place) {
			continue
		}

		name := det.Name
		if name == "" {
			name = s.Name
		}

		r := model.Record{
			InputContext: label,
			Name:         name,
			Address:      det.FormattedAddress,
			Phone:        det.Phone,
			Website:      det.Website,
			Status:       model.StatusNew,
			LastSeen:     now,
		}
		if s.Location != nil {
			lat, lon := s.Location.Lat(), s.Location.Lon()
			r.Latitude = &lat
			r.Longitude = &lon
		}
		records = append(records, r)
	}
	return records
}

// applyEmails discovers contact emails for the batch's unique websites
// and writes them back onto the records by domain.
func (a *Assembler) applyEmails(ctx context.Context, records []model.Record) {
	var websites []string
	for _, r := range records {
		if r.Website != "" {
			websites = append(websites, r.Website)
		}
	}
	if len(websites) == 0 {
		return
	}

	found := a.emails.Discover(ctx, websites)
	for i := range records {
		if records[i].Website == "" {
			continue
		}
		if addr, ok := found[email.Domain(records[i].Website)]; ok {
			records[i].Email = addr
		}
	}
}
