// Package geo handles jobsite coordinates: validation, distances and
// radius searches on WGS84 latitude/longitude pairs.
package geo

import (
	"math"
	"sort"

	"github.com/loxconnect/connect-api/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Point converts latitude/longitude to an orb point (longitude first)
func Point(lat, lng float64) orb.Point {
	return orb.Point{lng, lat}
}

// Valid reports whether lat/lng are finite WGS84 coordinates
func Valid(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// DistanceKm returns the great-circle distance in kilometres
func DistanceKm(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b) / 1000
}

// Bounds returns the bounding box around center that contains every point
// within radiusKm. Used to prefilter rows before exact distances are computed.
func Bounds(center orb.Point, radiusKm float64) orb.Bound {
	return geo.NewBoundAroundPoint(center, radiusKm*1000)
}

// Match is a jobsite with its distance from the search center
type Match struct {
	Jobsite    domain.Jobsite
	DistanceKm float64
}

// Nearby keeps the jobsites within radiusKm of center, nearest first
func Nearby(jobsites []domain.Jobsite, center orb.Point, radiusKm float64) []Match {
	matches := make([]Match, 0, len(jobsites))
	for _, js := range jobsites {
		d := DistanceKm(center, Point(js.Latitude, js.Longitude))
		if d <= radiusKm {
			matches = append(matches, Match{Jobsite: js, DistanceKm: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})
	return matches
}
