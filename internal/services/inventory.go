package services

import (
	"gorm.io/gorm"

	"rideshare/internal/domain"
	"rideshare/internal/models"
)

// Inventory is the sole mutator of Trip.AvailableSeats. Both operations are
// single conditional UPDATEs checked through RowsAffected, so concurrent
// callers racing on the same trip can never drive the counter negative or
// past the car's capacity. Callers pass their transaction handle to compose
// a reservation with the ledger write atomically.
type Inventory struct {
	db *gorm.DB
}

func NewInventory(db *gorm.DB) *Inventory {
	return &Inventory{db: db}
}

func (inv *Inventory) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return inv.db
}

// Reserve decrements the trip's available seats by n, failing with
// ErrInsufficientSeats when fewer than n remain.
func (inv *Inventory) Reserve(tx *gorm.DB, tripID uint, n int) error {
	if n < 1 {
		return domain.ValidationError{Field: "seats", Msg: "must be at least 1"}
	}
	db := inv.handle(tx)

	res := db.Model(&models.Trip{}).
		Where("id = ? AND available_seats >= ?", tripID, n).
		Update("available_seats", gorm.Expr("available_seats - ?", n))
	if res.Error != nil {
		return domain.FromStore("seat reserve", "trip", res.Error)
	}
	if res.RowsAffected == 0 {
		if err := tripExists(db, tripID); err != nil {
			return err
		}
		return domain.ConflictError{Resource: "trip", Msg: "insufficient seats", Err: domain.ErrInsufficientSeats}
	}
	return nil
}

// Release returns n seats to the trip. When the trip has a car with a known
// capacity the increment is clamped to it: an overshoot means a reservation
// was released twice and fails with ErrInventoryCorruption.
func (inv *Inventory) Release(tx *gorm.DB, tripID uint, n int) error {
	if n < 1 {
		return domain.ValidationError{Field: "seats", Msg: "must be at least 1"}
	}
	db := inv.handle(tx)

	q := db.Model(&models.Trip{}).Where("id = ?", tripID)
	if capSeats, ok, err := carCapacity(db, tripID); err != nil {
		return err
	} else if ok {
		q = q.Where("available_seats + ? <= ?", n, capSeats)
	}
	res := q.Update("available_seats", gorm.Expr("available_seats + ?", n))
	if res.Error != nil {
		return domain.FromStore("seat release", "trip", res.Error)
	}
	if res.RowsAffected == 0 {
		if err := tripExists(db, tripID); err != nil {
			return err
		}
		return domain.ConflictError{Resource: "trip", Msg: "release exceeds car capacity", Err: domain.ErrInventoryCorruption}
	}
	return nil
}

// Seats reads the current available seat count.
func (inv *Inventory) Seats(tripID uint) (int, error) {
	var trip models.Trip
	if err := inv.db.Select("available_seats").First(&trip, tripID).Error; err != nil {
		return 0, domain.FromStore("seat lookup", "trip", err)
	}
	return trip.AvailableSeats, nil
}

func tripExists(db *gorm.DB, tripID uint) error {
	var count int64
	if err := db.Model(&models.Trip{}).Where("id = ?", tripID).Count(&count).Error; err != nil {
		return domain.FromStore("trip lookup", "trip", err)
	}
	if count == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	return nil
}

// carCapacity resolves the seat capacity of the trip's car. ok is false when
// the trip has no car attached or the car was soft-deleted, in which case no
// upper bound applies. The raw join skips gorm's soft-delete scope, hence the
// explicit deleted_at condition.
func carCapacity(db *gorm.DB, tripID uint) (int, bool, error) {
	var seats []int
	err := db.Model(&models.Trip{}).
		Select("cars.seats").
		Joins("JOIN cars ON cars.id = trips.car_id AND cars.deleted_at IS NULL").
		Where("trips.id = ?", tripID).
		Scan(&seats).Error
	if err != nil {
		return 0, false, domain.FromStore("car capacity lookup", "car", err)
	}
	if len(seats) == 0 {
		return 0, false, nil
	}
	return seats[0], true, nil
}
