package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rideshare/internal/domain"
	"rideshare/internal/models"
	"rideshare/internal/stream"
)

// Lifecycle advances a trip through SCHEDULED → IN_PROGRESS → COMPLETED, or
// SCHEDULED → CANCELLED. Transitions are driver-initiated, one-way and
// guarded by the expected current status.
type Lifecycle struct {
	db        *gorm.DB
	inventory *Inventory
	workflow  *Workflow
	hub       *stream.Hub
}

func NewLifecycle(db *gorm.DB, inventory *Inventory, workflow *Workflow, hub *stream.Hub) *Lifecycle {
	return &Lifecycle{db: db, inventory: inventory, workflow: workflow, hub: hub}
}

// StartTrip moves a SCHEDULED trip to IN_PROGRESS.
func (l *Lifecycle) StartTrip(tripID, driverID uint) (*models.Trip, error) {
	return l.advance(tripID, driverID, models.TripScheduled, models.TripInProgress, nil)
}

// CompleteTrip moves an IN_PROGRESS trip to COMPLETED. Approved bookings ride
// along to COMPLETED; requests the driver never acted on are rejected and
// their holds returned so the ledger arithmetic closes out.
func (l *Lifecycle) CompleteTrip(tripID, driverID uint) (*models.Trip, error) {
	return l.advance(tripID, driverID, models.TripInProgress, models.TripCompleted, func(tx *gorm.DB) error {
		res := tx.Model(&models.TripBooking{}).
			Where("trip_id = ? AND status = ?", tripID, models.BookingApproved).
			Update("status", models.BookingCompleted)
		if res.Error != nil {
			return domain.FromStore("trip complete", "booking", res.Error)
		}
		if err := l.creditTripCounts(tx, tripID); err != nil {
			return err
		}
		return l.closeOutActive(tx, tripID, models.BookingRejected, []models.BookingStatus{models.BookingPending})
	})
}

// CancelTrip moves a SCHEDULED trip to CANCELLED and cascades: every still
// active booking is cancelled, its seats restored and a paid one flagged
// REFUNDED, all in the same transaction.
func (l *Lifecycle) CancelTrip(tripID, driverID uint) (*models.Trip, error) {
	return l.advance(tripID, driverID, models.TripScheduled, models.TripCancelled, func(tx *gorm.DB) error {
		return l.closeOutActive(tx, tripID, models.BookingCancelled,
			[]models.BookingStatus{models.BookingPending, models.BookingApproved})
	})
}

func (l *Lifecycle) advance(tripID, driverID uint, from, to models.TripStatus, cascade func(tx *gorm.DB) error) (*models.Trip, error) {
	var trip models.Trip
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&trip, tripID).Error; err != nil {
			return domain.FromStore("trip transition", "trip", err)
		}
		if driverID != 0 && trip.DriverID != driverID {
			return domain.NotFoundError{Resource: "trip"}
		}
		if trip.Status != from {
			return domain.ConflictError{
				Resource: "trip",
				Msg:      fmt.Sprintf("cannot move from %s to %s", trip.Status, to),
			}
		}

		res := tx.Model(&models.Trip{}).
			Where("id = ? AND status = ?", tripID, from).
			Update("status", to)
		if res.Error != nil {
			return domain.FromStore("trip transition", "trip", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ConflictError{Resource: "trip", Msg: "concurrent status change"}
		}

		if cascade != nil {
			if err := cascade(tx); err != nil {
				return err
			}
		}
		trip.Status = to
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"trip_id": tripID,
		"status":  to,
	}).Info("trip status advanced")
	if l.workflow != nil {
		l.workflow.publishTrip(tripID)
	}
	return &trip, nil
}

// creditTripCounts bumps the trip counter on the driver's profile and on
// every passenger whose booking completed with the trip.
func (l *Lifecycle) creditTripCounts(tx *gorm.DB, tripID uint) error {
	driverSub := tx.Model(&models.Trip{}).Select("driver_id").Where("id = ?", tripID)
	if err := tx.Model(&models.Profile{}).
		Where("id = (?)", driverSub).
		Update("trip_count", gorm.Expr("trip_count + 1")).Error; err != nil {
		return domain.FromStore("trip complete", "profile", err)
	}

	passengerSub := tx.Model(&models.TripBooking{}).
		Select("passenger_id").
		Where("trip_id = ? AND status = ?", tripID, models.BookingCompleted)
	if err := tx.Model(&models.Profile{}).
		Where("id IN (?)", passengerSub).
		Update("trip_count", gorm.Expr("trip_count + 1")).Error; err != nil {
		return domain.FromStore("trip complete", "profile", err)
	}
	return nil
}

// closeOutActive moves every booking still in one of the from states to the
// given terminal state, returning held seats and flipping PAID to REFUNDED.
func (l *Lifecycle) closeOutActive(tx *gorm.DB, tripID uint, to models.BookingStatus, from []models.BookingStatus) error {
	var bookings []models.TripBooking
	if err := tx.Where("trip_id = ? AND status IN ?", tripID, from).Find(&bookings).Error; err != nil {
		return domain.FromStore("booking cascade", "booking", err)
	}
	for _, b := range bookings {
		updates := map[string]interface{}{"status": to}
		if b.PaymentStatus == models.PaymentPaid {
			updates["payment_status"] = models.PaymentRefunded
		}
		res := tx.Model(&models.TripBooking{}).
			Where("id = ? AND status = ?", b.ID, b.Status).
			Updates(updates)
		if res.Error != nil {
			return domain.FromStore("booking cascade", "booking", res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost to a concurrent transition; that transition handled seats.
			continue
		}
		if err := l.inventory.Release(tx, tripID, b.Seats); err != nil {
			return err
		}
	}
	return nil
}
