// Package geo validates placement coordinates against city envelopes and
// classifies points into the country's coarse regions.
package geo

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/andeanbev/oohtrack/internal/model"
)

// kmPerDegreeLat is the mean meridian degree length in kilometers.
const kmPerDegreeLat = 111.32

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is an axis-aligned lat/lng rectangle. It approximates a circular
// radius around a city center: a point near a corner can be outside the
// true circle yet still pass. That approximation is intentional and
// matches the persisted data.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// ComputeBounds converts a city's center plus radius into a bounding box.
// The longitude delta widens with latitude (longitude degrees shrink
// toward the poles). Degenerate configurations fail closed: a radius that
// is not positive, a polar center, or a center outside valid coordinate
// range all return an error rather than an unbounded or zero-size box.
func ComputeBounds(city model.City) (Bounds, error) {
	if city.RadiusKM <= 0 {
		return Bounds{}, eris.Errorf("geo: city %q has non-positive radius %.2f", city.Name, city.RadiusKM)
	}
	// Strictly exclude the poles: float cos(90 deg) is ~6e-17, not 0,
	// which would pass a zero check and blow the longitude delta up to
	// an effectively unbounded box.
	if city.Lat <= -90 || city.Lat >= 90 {
		return Bounds{}, eris.Errorf("geo: city %q center latitude %.4f at or beyond a pole", city.Name, city.Lat)
	}
	if city.Lng < -180 || city.Lng > 180 {
		return Bounds{}, eris.Errorf("geo: city %q center longitude %.4f out of range", city.Name, city.Lng)
	}

	cosLat := math.Cos(city.Lat * math.Pi / 180)
	latDelta := city.RadiusKM / kmPerDegreeLat
	lngDelta := city.RadiusKM / (kmPerDegreeLat * cosLat)

	return Bounds{
		MinLat: city.Lat - latDelta,
		MaxLat: city.Lat + latDelta,
		MinLng: city.Lng - lngDelta,
		MaxLng: city.Lng + lngDelta,
	}, nil
}

// IsWithinBounds reports whether the point falls inside the box.
// Boundary points are inclusive.
func IsWithinBounds(p Point, b Bounds) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// OutOfBoundsError reports a coordinate outside a city's computed bounds.
// It carries enough data for a per-row, human-readable import message.
type OutOfBoundsError struct {
	City   string
	Point  Point
	Bounds Bounds
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf(
		"point (%.4f, %.4f) outside bounds of %s (lat %.4f..%.4f, lng %.4f..%.4f)",
		e.Point.Lat, e.Point.Lng, e.City,
		e.Bounds.MinLat, e.Bounds.MaxLat, e.Bounds.MinLng, e.Bounds.MaxLng,
	)
}

// ValidateAddress checks that a candidate placement point is an acceptable
// address location for the city. A rejected point comes back as an
// *OutOfBoundsError; the caller surfaces it per row and continues the batch.
func ValidateAddress(p Point, city model.City) error {
	bounds, err := ComputeBounds(city)
	if err != nil {
		return err
	}
	if !IsWithinBounds(p, bounds) {
		return &OutOfBoundsError{City: city.Name, Point: p, Bounds: bounds}
	}
	return nil
}

// Colombia's outer extent, with a margin for coordinate precision.
// Used as a coarse sanity check independent of per-city bounds.
var countryExtent = Bounds{
	MinLat: -4.5,
	MaxLat: 13.6,
	MinLng: -79.5,
	MaxLng: -66.5,
}

// IsWithinCountryExtent reports whether a point falls inside the
// country-level bounding box.
func IsWithinCountryExtent(p Point) bool {
	return IsWithinBounds(p, countryExtent)
}
