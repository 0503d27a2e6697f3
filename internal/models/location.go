package models

import (
	"math"
	"time"
)

const earthRadiusKm = 6371.0

// Location represents a geographical location with latitude and longitude coordinates.
type Location struct {
	Lat       float64    `bson:"lat" json:"lat"`
	Lon       float64    `bson:"lon" json:"lon"`
	Timestamp *time.Time `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
	Address   string     `bson:"address,omitempty" json:"address,omitempty"`
}

// Validate checks the coordinates are on the globe.
func (l Location) Validate(field string) error {
	if math.IsNaN(l.Lat) || l.Lat < -90 || l.Lat > 90 {
		return invalid(field+".lat", "latitude %v out of range [-90, 90]", l.Lat)
	}
	if math.IsNaN(l.Lon) || l.Lon < -180 || l.Lon > 180 {
		return invalid(field+".lon", "longitude %v out of range [-180, 180]", l.Lon)
	}
	return nil
}

// DistanceKm is the great-circle (haversine) distance to other in kilometers.
func (l Location) DistanceKm(other Location) float64 {
	dLat := toRadians(other.Lat - l.Lat)
	dLon := toRadians(other.Lon - l.Lon)
	lat1 := toRadians(l.Lat)
	lat2 := toRadians(other.Lat)
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return earthRadiusKm * c
}

// Within reports whether other lies within radiusKm of l.
func (l Location) Within(other Location, radiusKm float64) bool {
	return l.DistanceKm(other) <= radiusKm
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
