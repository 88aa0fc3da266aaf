package services

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"rideshare/internal/domain"
	"rideshare/internal/models"
	"rideshare/internal/stream"
)

// Trips owns the offer side: creating a trip (persisting its route in the
// same transaction), driver edits while it is still SCHEDULED, and hard
// deletion. Seat counters are never touched here except for the initial
// capacity at creation.
type Trips struct {
	db  *gorm.DB
	hub *stream.Hub
}

func NewTrips(db *gorm.DB, hub *stream.Hub) *Trips {
	return &Trips{db: db, hub: hub}
}

// RouteSpec is the caller-supplied route: geocoding and polyline generation
// happen upstream, the core only stores the result.
type RouteSpec struct {
	StartLocation string  `json:"start_location"`
	StartAddress  string  `json:"start_address"`
	StartLat      float64 `json:"start_lat"`
	StartLng      float64 `json:"start_lng"`
	EndLocation   string  `json:"end_location"`
	EndAddress    string  `json:"end_address"`
	EndLat        float64 `json:"end_lat"`
	EndLng        float64 `json:"end_lng"`
	Distance      float64 `json:"distance"`
	Duration      int     `json:"duration"`
	Polyline      string  `json:"polyline"`
}

type TripOffer struct {
	DriverID          uint
	CarID             *uint
	Route             RouteSpec
	DepartureTime     int64 // epoch millis
	Price             float64
	Seats             int
	IsRecurring       bool
	RecurrencePattern string
	Notes             string
}

// CreateTrip validates the offer, persists the route, then the trip, as one
// transaction. When a car is attached its capacity caps the offered seats.
func (t *Trips) CreateTrip(offer TripOffer) (*models.Trip, error) {
	if offer.Seats < 1 {
		return nil, domain.ValidationError{Field: "seats", Msg: "must be at least 1"}
	}
	if offer.Price < 0 {
		return nil, domain.ValidationError{Field: "price", Msg: "cannot be negative"}
	}
	if offer.DepartureTime <= time.Now().UnixMilli() {
		return nil, domain.ValidationError{Field: "departure_time", Msg: "must be in the future"}
	}
	if strings.TrimSpace(offer.Route.StartLocation) == "" || strings.TrimSpace(offer.Route.EndLocation) == "" {
		return nil, domain.ValidationError{Field: "route", Msg: "start and end locations are required"}
	}

	var trip models.Trip
	err := t.db.Transaction(func(tx *gorm.DB) error {
		if offer.CarID != nil {
			var car models.Car
			if err := tx.First(&car, *offer.CarID).Error; err != nil {
				return domain.FromStore("trip create", "car", err)
			}
			if car.DriverID != offer.DriverID {
				return domain.ConflictError{Resource: "car", Msg: "not owned by driver"}
			}
			if offer.Seats > car.Seats {
				return domain.ValidationError{Field: "seats", Msg: "exceeds car capacity"}
			}
		}

		route := models.Route{
			StartLocation: offer.Route.StartLocation,
			StartAddress:  offer.Route.StartAddress,
			StartLat:      offer.Route.StartLat,
			StartLng:      offer.Route.StartLng,
			EndLocation:   offer.Route.EndLocation,
			EndAddress:    offer.Route.EndAddress,
			EndLat:        offer.Route.EndLat,
			EndLng:        offer.Route.EndLng,
			Distance:      offer.Route.Distance,
			Duration:      offer.Route.Duration,
			Polyline:      offer.Route.Polyline,
		}
		if err := tx.Create(&route).Error; err != nil {
			return domain.FromStore("trip create", "route", err)
		}

		trip = models.Trip{
			DriverID:          offer.DriverID,
			CarID:             offer.CarID,
			RouteID:           route.ID,
			DepartureTime:     offer.DepartureTime,
			Price:             offer.Price,
			AvailableSeats:    offer.Seats,
			Status:            models.TripScheduled,
			IsRecurring:       offer.IsRecurring,
			RecurrencePattern: offer.RecurrencePattern,
			Notes:             offer.Notes,
		}
		if err := tx.Create(&trip).Error; err != nil {
			return domain.FromStore("trip create", "trip", err)
		}
		trip.Route = route
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// GetTrip loads a trip with its route and car.
func (t *Trips) GetTrip(tripID uint) (*models.Trip, error) {
	var trip models.Trip
	if err := t.db.Preload("Route").Preload("Car").First(&trip, tripID).Error; err != nil {
		return nil, domain.FromStore("trip get", "trip", err)
	}
	return &trip, nil
}

// TripsByDriver lists a driver's offers, soonest departure first.
func (t *Trips) TripsByDriver(driverID uint) ([]models.Trip, error) {
	var trips []models.Trip
	err := t.db.Preload("Route").Preload("Car").
		Where("driver_id = ?", driverID).
		Order("departure_time ASC").
		Find(&trips).Error
	if err != nil {
		return nil, domain.FromStore("trip list", "trip", err)
	}
	return trips, nil
}

// TripPatch carries the driver-editable fields; nil means keep current.
type TripPatch struct {
	DepartureTime     *int64   `json:"departure_time"`
	Price             *float64 `json:"price"`
	Notes             *string  `json:"notes"`
	IsRecurring       *bool    `json:"is_recurring"`
	RecurrencePattern *string  `json:"recurrence_pattern"`
}

// UpdateTrip applies driver edits to a trip that is still SCHEDULED.
func (t *Trips) UpdateTrip(tripID, driverID uint, patch TripPatch) (*models.Trip, error) {
	var trip models.Trip
	err := t.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&trip, tripID).Error; err != nil {
			return domain.FromStore("trip update", "trip", err)
		}
		if trip.DriverID != driverID {
			return domain.NotFoundError{Resource: "trip"}
		}
		if trip.Status != models.TripScheduled {
			return domain.ConflictError{Resource: "trip", Msg: "only scheduled trips can be edited"}
		}

		updates := map[string]interface{}{}
		if patch.DepartureTime != nil {
			if *patch.DepartureTime <= time.Now().UnixMilli() {
				return domain.ValidationError{Field: "departure_time", Msg: "must be in the future"}
			}
			updates["departure_time"] = *patch.DepartureTime
		}
		if patch.Price != nil {
			if *patch.Price < 0 {
				return domain.ValidationError{Field: "price", Msg: "cannot be negative"}
			}
			updates["price"] = *patch.Price
		}
		if patch.Notes != nil {
			updates["notes"] = *patch.Notes
		}
		if patch.IsRecurring != nil {
			updates["is_recurring"] = *patch.IsRecurring
		}
		if patch.RecurrencePattern != nil {
			updates["recurrence_pattern"] = *patch.RecurrencePattern
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&trip).Updates(updates).Error; err != nil {
			return domain.FromStore("trip update", "trip", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// DeleteTrip hard-deletes the trip, its bookings and its route.
func (t *Trips) DeleteTrip(tripID, driverID uint) error {
	err := t.db.Transaction(func(tx *gorm.DB) error {
		var trip models.Trip
		if err := tx.First(&trip, tripID).Error; err != nil {
			return domain.FromStore("trip delete", "trip", err)
		}
		if trip.DriverID != driverID {
			return domain.NotFoundError{Resource: "trip"}
		}
		if err := tx.Unscoped().Where("trip_id = ?", tripID).Delete(&models.TripBooking{}).Error; err != nil {
			return domain.FromStore("trip delete", "booking", err)
		}
		if err := tx.Unscoped().Delete(&trip).Error; err != nil {
			return domain.FromStore("trip delete", "trip", err)
		}
		if err := tx.Unscoped().Delete(&models.Route{}, trip.RouteID).Error; err != nil {
			return domain.FromStore("trip delete", "route", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if t.hub != nil {
		t.hub.Forget(TripSeatsKey(tripID))
		t.hub.Forget(TripBookingsKey(tripID))
	}
	return nil
}
