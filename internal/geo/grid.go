// Package geo provides the sample-point grid and distance helpers used to
// page location-biased searches past the upstream per-call result cap.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// MetersPerDegree is the approximate length of one degree of latitude.
const MetersPerDegree = 111_000

// maxStepM caps the grid step regardless of radius.
const maxStepM = 1000

// DefaultStep returns the step size used when the caller has no opinion:
// a third of the radius, capped at one kilometer.
func DefaultStep(radiusM float64) float64 {
	return math.Min(radiusM/3, maxStepM)
}

// Grid tiles the bounding square of side 2×radius around center with
// sample points spaced stepM apart. Longitude spacing is scaled by
// cos(latitude) so cells stay roughly square on the ground.
//
// The cover is a square lattice, not a disk: callers post-filter results
// by true distance to enforce the circular boundary.
func Grid(center orb.Point, radiusM, stepM float64) []orb.Point {
	if radiusM <= 0 || stepM <= 0 {
		return nil
	}

	lat := center.Lat()
	lonScale := math.Cos(lat * math.Pi / 180)

	stepLat := stepM / MetersPerDegree
	stepLon := stepM / (MetersPerDegree * lonScale)

	latMin := lat - radiusM/MetersPerDegree
	latMax := lat + radiusM/MetersPerDegree
	lonMin := center.Lon() - radiusM/(MetersPerDegree*lonScale)
	lonMax := center.Lon() + radiusM/(MetersPerDegree*lonScale)

	var points []orb.Point
	for gLat := latMin; gLat < latMax; gLat += stepLat {
		for gLon := lonMin; gLon < lonMax; gLon += stepLon {
			points = append(points, orb.Point{gLon, gLat})
		}
	}
	return points
}

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b orb.Point) float64 {
	return geo.Distance(a, b)
}
