package models

import "gorm.io/gorm"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingApproved  BookingStatus = "APPROVED"
	BookingRejected  BookingStatus = "REJECTED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// Active reports whether the booking still holds seats on its trip.
// PENDING and APPROVED are the only non-terminal states.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingApproved
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// TripBooking is a passenger's request to occupy seats on a trip. A
// (trip_id, passenger_id) pair has at most one record: re-requesting
// refreshes the existing row instead of inserting a second one.
type TripBooking struct {
	gorm.Model
	TripID      uint `json:"trip_id" gorm:"index:idx_trip_passenger,unique"`
	PassengerID uint `json:"passenger_id" gorm:"index:idx_trip_passenger,unique"`
	Seats       int  `json:"seats"`

	PickupLocation  string   `json:"pickup_location"`
	PickupLat       *float64 `json:"pickup_lat"`
	PickupLng       *float64 `json:"pickup_lng"`
	DropoffLocation string   `json:"dropoff_location"`
	DropoffLat      *float64 `json:"dropoff_lat"`
	DropoffLng      *float64 `json:"dropoff_lng"`

	Status        BookingStatus `json:"status" gorm:"default:PENDING;index"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"default:PENDING"`

	// Post-trip feedback, set once on a COMPLETED booking.
	Rating *int   `json:"rating"`
	Review string `json:"review"`
}
