package models

import "gorm.io/gorm"

type TripStatus string

const (
	TripScheduled  TripStatus = "SCHEDULED"
	TripInProgress TripStatus = "IN_PROGRESS"
	TripCompleted  TripStatus = "COMPLETED"
	TripCancelled  TripStatus = "CANCELLED"
)

// Trip is a driver's scheduled ride offer with finite seat capacity.
// AvailableSeats is only ever mutated through the inventory coordinator
// (single conditional UPDATE) and must never drop below zero.
type Trip struct {
	gorm.Model
	DriverID uint  `json:"driver_id" gorm:"index"`
	CarID    *uint `json:"car_id"`
	RouteID  uint  `json:"route_id"`

	DepartureTime     int64      `json:"departure_time"` // epoch millis
	Price             float64    `json:"price"`
	AvailableSeats    int        `json:"available_seats"`
	Status            TripStatus `json:"status" gorm:"default:SCHEDULED;index"`
	IsRecurring       bool       `json:"is_recurring"`
	RecurrencePattern string     `json:"recurrence_pattern"`
	Notes             string     `json:"notes"`

	// Associations
	Route    Route         `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"route,omitempty"`
	Car      *Car          `gorm:"foreignKey:CarID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"car,omitempty"`
	Bookings []TripBooking `gorm:"foreignKey:TripID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"bookings,omitempty"`
}
