package models

import "gorm.io/gorm"

type Car struct {
	gorm.Model
	DriverID uint   `json:"driver_id" gorm:"index"`
	Make     string `json:"make"`
	Plate    string `json:"plate"`
	// Seats is the physical passenger capacity and the upper bound the seat
	// inventory is clamped to when releasing reservations.
	Seats     int    `json:"seats"`
	Amenities string `json:"amenities"`
}
