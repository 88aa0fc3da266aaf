package models

import "gorm.io/gorm"

type Profile struct {
	gorm.Model
	Name     string  `json:"name"`
	Email    string  `json:"email" gorm:"unique"`
	Password string  `json:"-"`
	Phone    string  `json:"phone"`
	Role     string  `json:"role"` // "driver", "passenger"
	Rating   float64 `json:"rating" gorm:"default:0"`
	// TripCount is the number of completed trips/bookings this profile took
	// part in; the running Rating is averaged over rated bookings.
	TripCount   int `json:"trip_count" gorm:"default:0"`
	RatingCount int `json:"rating_count" gorm:"default:0"`

	Cars []Car `gorm:"foreignKey:DriverID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"cars,omitempty"`
}
