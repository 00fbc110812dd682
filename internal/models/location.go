package models

import (
	"time"
)

type Location struct {
	Type        string    `json:"type" bson:"type" default:"Point"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"required,len=2"`
	Address     string    `json:"address" bson:"address"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

// NewLocation builds a GeoJSON point from a latitude/longitude pair.
func NewLocation(lat, lng float64) Location {
	return Location{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
		Timestamp:   time.Now(),
	}
}

func (l Location) Latitude() float64 {
	if len(l.Coordinates) >= 2 {
		return l.Coordinates[1]
	}
	return 0
}

func (l Location) Longitude() float64 {
	if len(l.Coordinates) >= 1 {
		return l.Coordinates[0]
	}
	return 0
}

func (l Location) IsValid() bool {
	if len(l.Coordinates) != 2 {
		return false
	}
	lat, lng := l.Latitude(), l.Longitude()
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
