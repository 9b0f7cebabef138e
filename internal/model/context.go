package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

// Mode selects how a search is specified.
type Mode string

const (
	ModeTyped Mode = "typed" // category + place name, free-text search
	ModeMap   Mode = "map"   // category + center + radius, grid search
)

// SearchContext carries everything one search needs, end to end. It
// replaces the ambient session state of the original UI: components take
// it explicitly and Reset clears a known field set.
type SearchContext struct {
	RunID    string     `json:"run_id"`
	Mode     Mode       `json:"mode"`
	Category string     `json:"category"`
	Place    string     `json:"place,omitempty"`  // typed mode
	Center   *orb.Point `json:"center,omitempty"` // map mode, (lon, lat)
	RadiusM  float64    `json:"radius_m,omitempty"`
}

// NewTypedSearch builds a typed-mode context.
func NewTypedSearch(category, place string) SearchContext {
	return SearchContext{
		RunID:    uuid.New().String(),
		Mode:     ModeTyped,
		Category: category,
		Place:    place,
	}
}

// NewMapSearch builds a map-mode context centered on (lat, lon).
func NewMapSearch(category string, lat, lon, radiusM float64) SearchContext {
	center := orb.Point{lon, lat}
	return SearchContext{
		RunID:    uuid.New().String(),
		Mode:     ModeMap,
		Category: category,
		Center:   &center,
		RadiusM:  radiusM,
	}
}

// Validate rejects incomplete input before any network call is made.
func (s SearchContext) Validate() error {
	if strings.TrimSpace(s.Category) == "" {
		return eris.New("search: category is required")
	}
	switch s.Mode {
	case ModeTyped:
		if strings.TrimSpace(s.Place) == "" {
			return eris.New("search: place is required in typed mode")
		}
	case ModeMap:
		if s.Center == nil {
			return eris.New("search: no location selected, pick a center first")
		}
		if s.RadiusM <= 0 {
			return eris.New("search: radius must be positive")
		}
	default:
		return eris.Errorf("search: unknown mode %q", s.Mode)
	}
	return nil
}

// Label is the input-context tag that owns every record this search
// produces, and the partition key for reconciliation scope.
func (s SearchContext) Label() string {
	if s.Mode == ModeMap && s.Center != nil {
		return fmt.Sprintf("Map: %s in %.5f, %.5f (radius %.0f m)",
			s.Category, s.Center.Lat(), s.Center.Lon(), s.RadiusM)
	}
	return fmt.Sprintf("Typed: %s in %s", s.Category, s.Place)
}

// ScopePrefix is the case-insensitive prefix that selects persisted
// records in scope for a map search: all map searches for the category,
// regardless of exact location and radius.
func (s SearchContext) ScopePrefix() string {
	return "map: " + strings.ToLower(s.Category)
}

// Filename derives the export file name, spaces replaced by underscores.
func (s SearchContext) Filename() string {
	var name string
	if s.Mode == ModeMap && s.Center != nil {
		name = fmt.Sprintf("%s_%v_%v.xlsx", s.Category, s.Center.Lat(), s.Center.Lon())
	} else {
		name = fmt.Sprintf("%s_%s.xlsx", s.Category, s.Place)
	}
	return strings.ReplaceAll(name, " ", "_")
}

// DisplayColumns lists the export/display projection for this mode.
// Typed mode omits coordinates; map mode includes them.
func (s SearchContext) DisplayColumns() []string {
	if s.Mode == ModeMap {
		return []string{"Name", "Address", "Latitude", "Longitude", "Phone", "Website", "Email"}
	}
	return []string{"Name", "Address", "Phone", "Website", "Email"}
}

// Reset clears the fields a new search must not inherit, keeping the
// category so repeated searches stay convenient.
func (s *SearchContext) Reset() {
	s.RunID = ""
	s.Place = ""
	s.Center = nil
	s.RadiusM = 0
}
