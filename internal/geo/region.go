package geo

import "sort"

// Region names for the four coarse geographic buckets.
const (
	RegionNorth  = "North"
	RegionCenter = "Center"
	RegionAndes  = "Andes"
	RegionSouth  = "South"
)

// Region is a coarse geographic bucket with an approximate bounding
// rectangle. The rectangles are informational, used only for suggestion,
// never for enforcement, and they overlap on purpose.
type Region struct {
	Name   string `json:"name"`
	Bounds Bounds `json:"bounds"`
}

// regionTable holds the fixed four-region split of Colombia. Ties on
// confidence resolve in table order.
var regionTable = []Region{
	{Name: RegionNorth, Bounds: Bounds{MinLat: 8.0, MaxLat: 13.6, MinLng: -77.8, MaxLng: -71.0}},
	{Name: RegionCenter, Bounds: Bounds{MinLat: 3.5, MaxLat: 8.5, MinLng: -75.2, MaxLng: -70.0}},
	{Name: RegionAndes, Bounds: Bounds{MinLat: 0.5, MaxLat: 8.2, MinLng: -79.5, MaxLng: -74.5}},
	{Name: RegionSouth, Bounds: Bounds{MinLat: -4.5, MaxLat: 3.6, MinLng: -75.5, MaxLng: -66.5}},
}

// Regions returns a copy of the fixed region table.
func Regions() []Region {
	out := make([]Region, len(regionTable))
	copy(out, regionTable)
	return out
}

// RegionMatch is one candidate region for a point, scored 0-100.
type RegionMatch struct {
	Region     Region  `json:"region"`
	Confidence float64 `json:"confidence"`
}

// SuggestRegion scores every region whose rectangle contains the point.
// The confidence normalizes the point's offset from the rectangle center
// by the half-width on each axis, averages the two, and maps the result
// to 0-100 (clamped). A point outside every rectangle yields an empty
// slice: an unclassifiable location is a normal outcome, not an error.
func SuggestRegion(p Point) []RegionMatch {
	var matches []RegionMatch
	for _, r := range regionTable {
		if !IsWithinBounds(p, r.Bounds) {
			continue
		}
		matches = append(matches, RegionMatch{
			Region:     r,
			Confidence: regionConfidence(p, r.Bounds),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// regionConfidence returns 100 at the rectangle center, falling linearly
// to 0 at the edges, clamped to [0, 100].
func regionConfidence(p Point, b Bounds) float64 {
	halfH := (b.MaxLat - b.MinLat) / 2
	halfW := (b.MaxLng - b.MinLng) / 2
	if halfH <= 0 || halfW <= 0 {
		return 0
	}

	centerLat := (b.MinLat + b.MaxLat) / 2
	centerLng := (b.MinLng + b.MaxLng) / 2

	latOff := abs(p.Lat-centerLat) / halfH
	lngOff := abs(p.Lng-centerLng) / halfW

	conf := (1 - (latOff+lngOff)/2) * 100
	if conf < 0 {
		return 0
	}
	if conf > 100 {
		return 100
	}
	return conf
}

// Classification is the outcome of classifying a point into a region.
// Region is nil when the point lies outside every known region.
type Classification struct {
	Region       *Region       `json:"region,omitempty"`
	Confidence   float64       `json:"confidence"`
	Alternatives []RegionMatch `json:"alternatives,omitempty"`
}

// ClassifyRegion picks the most plausible region for a point, with the
// remaining candidates as alternatives.
func ClassifyRegion(p Point) Classification {
	matches := SuggestRegion(p)
	if len(matches) == 0 {
		return Classification{}
	}
	best := matches[0]
	return Classification{
		Region:       &best.Region,
		Confidence:   best.Confidence,
		Alternatives: matches[1:],
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
