package models

import "gorm.io/gorm"

// Route is the immutable origin/destination/geometry record a trip points at.
// It is created once (when the trip is offered) and never updated; geocoding
// and polyline generation happen upstream, the core only stores the result.
type Route struct {
	gorm.Model
	StartLocation string  `json:"start_location"`
	StartAddress  string  `json:"start_address"`
	StartLat      float64 `json:"start_lat"`
	StartLng      float64 `json:"start_lng"`
	EndLocation   string  `json:"end_location"`
	EndAddress    string  `json:"end_address"`
	EndLat        float64 `json:"end_lat"`
	EndLng        float64 `json:"end_lng"`
	Distance      float64 `json:"distance"` // kilometres
	Duration      int     `json:"duration"` // seconds
	Polyline      string  `json:"polyline"`
}
