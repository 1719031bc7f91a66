package domain

import (
	"fmt"

	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371000.0

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Equal reports exact equality on both axes.
func (c Coordinate) Equal(o Coordinate) bool {
	return c.Lat == o.Lat && c.Lng == o.Lng
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// ServiceRegion is the axis-aligned bounding box within which locations are accepted.
type ServiceRegion struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LngMin float64 `json:"lng_min"`
	LngMax float64 `json:"lng_max"`
}

// TaipeiRegion covers Taipei City and its immediate surroundings.
var TaipeiRegion = ServiceRegion{
	LatMin: 24.9,
	LatMax: 25.2,
	LngMin: 121.45,
	LngMax: 121.7,
}

// DefaultCenter is the fallback location used when geolocation is
// unavailable or out of region. It lies inside TaipeiRegion.
var DefaultCenter = Coordinate{Lat: 25.017341, Lng: 121.539752}

// Contains reports whether c lies within the region, bounds inclusive.
// NaN on either axis fails every comparison and is out of region.
func (r ServiceRegion) Contains(c Coordinate) bool {
	return c.Lat >= r.LatMin && c.Lat <= r.LatMax &&
		c.Lng >= r.LngMin && c.Lng <= r.LngMax
}

// Center returns the midpoint of the region.
func (r ServiceRegion) Center() Coordinate {
	return Coordinate{Lat: (r.LatMin + r.LatMax) / 2, Lng: (r.LngMin + r.LngMax) / 2}
}

// Validate checks that the bounds are ordered.
func (r ServiceRegion) Validate() error {
	if !(r.LatMin < r.LatMax) {
		return fmt.Errorf("region latitude bounds out of order: %v >= %v", r.LatMin, r.LatMax)
	}
	if !(r.LngMin < r.LngMax) {
		return fmt.Errorf("region longitude bounds out of order: %v >= %v", r.LngMin, r.LngMax)
	}
	return nil
}

// InRegion is the geofence predicate: whether c is inside r.
func InRegion(c Coordinate, r ServiceRegion) bool {
	return r.Contains(c)
}

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b Coordinate) float64 {
	la := s2.LatLngFromDegrees(a.Lat, a.Lng)
	lb := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return la.Distance(lb).Radians() * earthRadiusMeters
}
