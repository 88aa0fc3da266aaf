package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rideshare/internal/domain"
	"rideshare/internal/models"
	"rideshare/internal/stream"
)

// Stream keys for the live watch endpoints.
func TripSeatsKey(tripID uint) string    { return fmt.Sprintf("trip/%d/seats", tripID) }
func TripBookingsKey(tripID uint) string { return fmt.Sprintf("trip/%d/bookings", tripID) }

// Workflow drives a booking through PENDING → APPROVED/REJECTED/CANCELLED/
// COMPLETED. Every mutating operation runs the seat reservation/release and
// the ledger write inside one transaction, and every transition is guarded
// by the expected current status so two racing callers cannot both win.
type Workflow struct {
	db        *gorm.DB
	inventory *Inventory
	hub       *stream.Hub
}

func NewWorkflow(db *gorm.DB, inventory *Inventory, hub *stream.Hub) *Workflow {
	return &Workflow{db: db, inventory: inventory, hub: hub}
}

// BookingRequest carries the passenger's input for a new booking.
type BookingRequest struct {
	TripID      uint
	PassengerID uint
	Seats       int

	PickupLocation  string
	PickupLat       *float64
	PickupLng       *float64
	DropoffLocation string
	DropoffLat      *float64
	DropoffLng      *float64
}

// CreateBookingRequest reserves seats and writes a PENDING booking. Seats are
// held at request time, before the driver reviews anything. A repeat request
// for the same (trip, passenger) pair refreshes the existing record: the old
// hold is released, the new seat count reserved, and the status reset to
// PENDING. A second row is never inserted.
func (w *Workflow) CreateBookingRequest(req BookingRequest) (*models.TripBooking, error) {
	if req.Seats < 1 {
		return nil, domain.ValidationError{Field: "seats", Msg: "must be at least 1"}
	}
	if req.PassengerID == 0 {
		return nil, domain.ValidationError{Field: "passenger_id", Msg: "required"}
	}

	var booking models.TripBooking
	err := w.db.Transaction(func(tx *gorm.DB) error {
		var trip models.Trip
		if err := tx.First(&trip, req.TripID).Error; err != nil {
			return domain.FromStore("booking create", "trip", err)
		}
		if trip.Status != models.TripScheduled {
			return domain.ConflictError{Resource: "trip", Msg: "not open for booking"}
		}
		if trip.DriverID == req.PassengerID {
			return domain.ConflictError{Resource: "trip", Msg: "drivers cannot book their own trip"}
		}

		var existing models.TripBooking
		err := tx.Where("trip_id = ? AND passenger_id = ?", req.TripID, req.PassengerID).
			First(&existing).Error
		switch {
		case err == nil:
			// Refresh the existing record instead of inserting a duplicate.
			if existing.Status.Active() {
				if err := w.inventory.Release(tx, req.TripID, existing.Seats); err != nil {
					return err
				}
			}
			if err := w.inventory.Reserve(tx, req.TripID, req.Seats); err != nil {
				return err
			}
			updates := map[string]interface{}{
				"seats":            req.Seats,
				"pickup_location":  req.PickupLocation,
				"pickup_lat":       req.PickupLat,
				"pickup_lng":       req.PickupLng,
				"dropoff_location": req.DropoffLocation,
				"dropoff_lat":      req.DropoffLat,
				"dropoff_lng":      req.DropoffLng,
				"status":           models.BookingPending,
				"payment_status":   models.PaymentPending,
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return domain.FromStore("booking refresh", "booking", err)
			}
			booking = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := w.inventory.Reserve(tx, req.TripID, req.Seats); err != nil {
				return err
			}
			booking = models.TripBooking{
				TripID:          req.TripID,
				PassengerID:     req.PassengerID,
				Seats:           req.Seats,
				PickupLocation:  req.PickupLocation,
				PickupLat:       req.PickupLat,
				PickupLng:       req.PickupLng,
				DropoffLocation: req.DropoffLocation,
				DropoffLat:      req.DropoffLat,
				DropoffLng:      req.DropoffLng,
				Status:          models.BookingPending,
				PaymentStatus:   models.PaymentPending,
			}
			if err := tx.Create(&booking).Error; err != nil {
				return domain.FromStore("booking create", "booking", err)
			}
			return nil
		default:
			return domain.FromStore("booking lookup", "booking", err)
		}
	})
	if err != nil {
		return nil, err
	}

	w.publishTrip(req.TripID)
	return &booking, nil
}

// AcceptBookingRequest moves a PENDING booking to APPROVED. Seats were
// already reserved at request time, so the counter is untouched.
func (w *Workflow) AcceptBookingRequest(bookingID, driverID uint) (*models.TripBooking, error) {
	booking, err := w.transition(bookingID, driverID, models.BookingApproved,
		[]models.BookingStatus{models.BookingPending}, false)
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// RejectBookingRequest moves a PENDING or APPROVED booking to REJECTED and
// returns its seats; rejecting a COMPLETED booking leaves the counter alone.
func (w *Workflow) RejectBookingRequest(bookingID, driverID uint, reason string) (*models.TripBooking, error) {
	booking, err := w.transition(bookingID, driverID, models.BookingRejected,
		[]models.BookingStatus{models.BookingPending, models.BookingApproved, models.BookingCompleted}, true)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		logrus.WithFields(logrus.Fields{
			"booking_id": bookingID,
			"reason":     reason,
		}).Info("booking rejected")
	}
	return booking, nil
}

// CancelBookingRequest is the passenger-side cancellation. Seats held by a
// PENDING/APPROVED booking are returned; a COMPLETED one changes status only.
func (w *Workflow) CancelBookingRequest(bookingID, passengerID uint) (*models.TripBooking, error) {
	return w.transition(bookingID, passengerID, models.BookingCancelled,
		[]models.BookingStatus{models.BookingPending, models.BookingApproved, models.BookingCompleted}, true)
}

// transition performs one guarded status change. from lists the states the
// transition is legal from; releaseSeats returns the booking's hold when the
// prior status was still active. actorID must be the trip's driver for
// driver-side transitions or the booking's passenger for passenger-side ones.
func (w *Workflow) transition(bookingID, actorID uint, to models.BookingStatus, from []models.BookingStatus, releaseSeats bool) (*models.TripBooking, error) {
	var booking models.TripBooking
	err := w.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, bookingID).Error; err != nil {
			return domain.FromStore("booking transition", "booking", err)
		}
		if err := w.authorize(tx, &booking, actorID, to); err != nil {
			return err
		}

		prior := booking.Status
		allowed := false
		for _, s := range from {
			if prior == s {
				allowed = true
				break
			}
		}
		if !allowed {
			return domain.ConflictError{
				Resource: "booking",
				Msg:      fmt.Sprintf("cannot move from %s to %s", prior, to),
			}
		}

		updates := map[string]interface{}{"status": to}
		if terminalRefund(to, booking.PaymentStatus) {
			updates["payment_status"] = models.PaymentRefunded
		}
		// Guard on the status we just read so a concurrent transition on the
		// same booking loses cleanly instead of double-applying.
		res := tx.Model(&models.TripBooking{}).
			Where("id = ? AND status = ?", bookingID, prior).
			Updates(updates)
		if res.Error != nil {
			return domain.FromStore("booking transition", "booking", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ConflictError{Resource: "booking", Msg: "concurrent status change"}
		}

		if releaseSeats && prior.Active() {
			if err := w.inventory.Release(tx, booking.TripID, booking.Seats); err != nil {
				return err
			}
		}

		booking.Status = to
		if ps, ok := updates["payment_status"]; ok {
			booking.PaymentStatus = ps.(models.PaymentStatus)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.publishTrip(booking.TripID)
	return &booking, nil
}

// authorize checks the actor against the side of the state machine being
// driven: accept/reject belong to the trip's driver, cancel to the passenger.
func (w *Workflow) authorize(tx *gorm.DB, booking *models.TripBooking, actorID uint, to models.BookingStatus) error {
	if actorID == 0 {
		return nil // internal caller (e.g. lifecycle cascade)
	}
	switch to {
	case models.BookingApproved, models.BookingRejected:
		var trip models.Trip
		if err := tx.Select("driver_id").First(&trip, booking.TripID).Error; err != nil {
			return domain.FromStore("booking authorize", "trip", err)
		}
		if trip.DriverID != actorID {
			return domain.NotFoundError{Resource: "booking"}
		}
	case models.BookingCancelled:
		if booking.PassengerID != actorID {
			return domain.NotFoundError{Resource: "booking"}
		}
	}
	return nil
}

// terminalRefund flags a paid booking leaving the active path; only the
// payment flag moves, settlement is out of scope.
func terminalRefund(to models.BookingStatus, ps models.PaymentStatus) bool {
	if ps != models.PaymentPaid {
		return false
	}
	return to == models.BookingRejected || to == models.BookingCancelled
}

// DeleteBooking hard-deletes the ledger row. The hold is returned only when
// the booking was still active: rejected/cancelled bookings already released
// their seats, and releasing twice would corrupt the counter.
func (w *Workflow) DeleteBooking(bookingID, passengerID uint) error {
	var tripID uint
	err := w.db.Transaction(func(tx *gorm.DB) error {
		var booking models.TripBooking
		if err := tx.First(&booking, bookingID).Error; err != nil {
			return domain.FromStore("booking delete", "booking", err)
		}
		if passengerID != 0 && booking.PassengerID != passengerID {
			return domain.NotFoundError{Resource: "booking"}
		}
		tripID = booking.TripID

		if booking.Status.Active() {
			if err := w.inventory.Release(tx, booking.TripID, booking.Seats); err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Delete(&booking).Error; err != nil {
			return domain.FromStore("booking delete", "booking", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.publishTrip(tripID)
	return nil
}

// CanUserBookTrip answers the pre-flight eligibility check the booking form
// shows before a request is ever sent.
func (w *Workflow) CanUserBookTrip(tripID, userID uint) (domain.Eligibility, error) {
	var trip models.Trip
	if err := w.db.First(&trip, tripID).Error; err != nil {
		return domain.TripNotAvailable, domain.FromStore("eligibility check", "trip", err)
	}
	switch {
	case trip.DriverID == userID:
		return domain.CannotBookOwnTrip, nil
	case trip.Status != models.TripScheduled:
		return domain.TripNotAvailable, nil
	case trip.AvailableSeats <= 0:
		return domain.NoSeatsAvailable, nil
	default:
		return domain.CanBook, nil
	}
}

// MarkBookingPaid flips an APPROVED booking's payment flag to PAID. Only the
// flag is tracked; settlement happens elsewhere.
func (w *Workflow) MarkBookingPaid(bookingID, passengerID uint) (*models.TripBooking, error) {
	var booking models.TripBooking
	err := w.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, bookingID).Error; err != nil {
			return domain.FromStore("booking pay", "booking", err)
		}
		if passengerID != 0 && booking.PassengerID != passengerID {
			return domain.NotFoundError{Resource: "booking"}
		}
		if booking.Status != models.BookingApproved {
			return domain.ConflictError{Resource: "booking", Msg: "only approved bookings can be paid"}
		}
		if booking.PaymentStatus != models.PaymentPending {
			return domain.ConflictError{Resource: "booking", Msg: "payment already settled"}
		}
		res := tx.Model(&models.TripBooking{}).
			Where("id = ? AND payment_status = ?", bookingID, models.PaymentPending).
			Update("payment_status", models.PaymentPaid)
		if res.Error != nil {
			return domain.FromStore("booking pay", "booking", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ConflictError{Resource: "booking", Msg: "concurrent payment change"}
		}
		booking.PaymentStatus = models.PaymentPaid
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// RateBooking records post-trip feedback on a COMPLETED booking, once, and
// folds the score into the driver's running average.
func (w *Workflow) RateBooking(bookingID, passengerID uint, rating int, review string) (*models.TripBooking, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.ValidationError{Field: "rating", Msg: "must be between 1 and 5"}
	}
	var booking models.TripBooking
	err := w.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, bookingID).Error; err != nil {
			return domain.FromStore("booking rate", "booking", err)
		}
		if booking.PassengerID != passengerID {
			return domain.NotFoundError{Resource: "booking"}
		}
		if booking.Status != models.BookingCompleted {
			return domain.ConflictError{Resource: "booking", Msg: "only completed bookings can be rated"}
		}
		if booking.Rating != nil {
			return domain.ConflictError{Resource: "booking", Msg: "already rated"}
		}
		if err := tx.Model(&booking).Updates(map[string]interface{}{
			"rating": rating,
			"review": review,
		}).Error; err != nil {
			return domain.FromStore("booking rate", "booking", err)
		}

		var trip models.Trip
		if err := tx.Select("driver_id").First(&trip, booking.TripID).Error; err != nil {
			return domain.FromStore("booking rate", "trip", err)
		}
		var driver models.Profile
		if err := tx.First(&driver, trip.DriverID).Error; err != nil {
			return domain.FromStore("booking rate", "profile", err)
		}
		newCount := driver.RatingCount + 1
		newRating := (driver.Rating*float64(driver.RatingCount) + float64(rating)) / float64(newCount)
		if err := tx.Model(&driver).Updates(map[string]interface{}{
			"rating":       newRating,
			"rating_count": newCount,
		}).Error; err != nil {
			return domain.FromStore("booking rate", "profile", err)
		}

		r := rating
		booking.Rating = &r
		booking.Review = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// BookingsForTrip lists the ledger for one trip, newest first.
func (w *Workflow) BookingsForTrip(tripID uint) ([]models.TripBooking, error) {
	var bookings []models.TripBooking
	err := w.db.Where("trip_id = ?", tripID).Order("created_at DESC").Find(&bookings).Error
	if err != nil {
		return nil, domain.FromStore("booking list", "booking", err)
	}
	return bookings, nil
}

// BookingsForPassenger lists a passenger's bookings, newest first.
func (w *Workflow) BookingsForPassenger(passengerID uint) ([]models.TripBooking, error) {
	var bookings []models.TripBooking
	err := w.db.Where("passenger_id = ?", passengerID).Order("created_at DESC").Find(&bookings).Error
	if err != nil {
		return nil, domain.FromStore("booking list", "booking", err)
	}
	return bookings, nil
}

// publishTrip pushes fresh seat-count and ledger snapshots to watchers. Runs
// after commit; a read failure here only costs the notification.
func (w *Workflow) publishTrip(tripID uint) {
	if w.hub == nil {
		return
	}
	if seats, err := w.inventory.Seats(tripID); err == nil {
		w.hub.Publish(TripSeatsKey(tripID), seats)
	} else if !domain.IsNotFound(err) {
		logrus.WithError(err).WithField("trip_id", tripID).Warn("seat snapshot for watchers failed")
	}
	if bookings, err := w.BookingsForTrip(tripID); err == nil {
		w.hub.Publish(TripBookingsKey(tripID), bookings)
	} else {
		logrus.WithError(err).WithField("trip_id", tripID).Warn("booking snapshot for watchers failed")
	}
}
