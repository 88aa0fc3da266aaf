package services

import (
	"errors"
	"sync"
	"testing"

	"rideshare/internal/domain"
)

func TestReserveDecrementsExactly(t *testing.T) {
	db := newTestDB(t)
	driver := seedProfile(t, db, "driver")
	trip := seedTrip(t, db, driver.ID, tripOpts{seats: 4})
	inv := NewInventory(db)

	if err := inv.Reserve(nil, trip.ID, 3); err != nil {
		t.Fatalf("reserve 3 of 4: %v", err)
	}
	if got := seatsOf(t, db, trip.ID); got != 1 {
		t.Fatalf("available seats = %d, want 1", got)
	}
}

func TestReserveInsufficientLeavesCounterAlone(t *testing.T) {
	db := newTestDB(t)
	driver := seedProfile(t, db, "driver")
	trip := seedTrip(t, db, driver.ID, tripOpts{seats: 2})
	inv := NewInventory(db)

	err := inv.Reserve(nil, trip.ID, 3)
	if !errors.Is(err, domain.ErrInsufficientSeats) {
		t.Fatalf("expected ErrInsufficientSeats, got %v", err)
	}
	if !domain.IsConflict(err) {
		t.Fatalf("expected a ConflictError, got %T", err)
	}
	if got := seatsOf(t, db, trip.ID); got != 2 {
		t.Fatalf("available seats = %d, want unchanged 2", got)
	}
}

func TestReserveMissingTrip(t *testing.T) {
	db := newTestDB(t)
	inv := NewInventory(db)

	if err := inv.Reserve(nil, 9999, 1); !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestReserveRejectsNonPositiveCount(t *testing.T) {
	db := newTestDB(t)
	inv := NewInventory(db)

	if err := inv.Reserve(nil, 1, 0); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestReleaseRestores(t *testing.T) {
	db := newTestDB(t)
	driver := seedProfile(t, db, "driver")
	trip := seedTrip(t, db, driver.ID, tripOpts{seats: 4})
	inv := NewInventory(db)

	if err := inv.Reserve(nil, trip.ID, 3); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := inv.Release(nil, trip.ID, 3); err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := seatsOf(t, db, trip.ID); got != 4 {
		t.Fatalf("available seats = %d, want 4", got)
	}
}

func TestReleaseClampedToCarCapacity(t *testing.T) {
	db := newTestDB(t)
	driver := seedProfile(t, db, "driver")
	car := seedCar(t, db, driver.ID, 4)
	trip := seedTrip(t, db, driver.ID, tripOpts{seats: 4, carID: &car.ID})
	inv := NewInventory(db)

	err := inv.Release(nil, trip.ID, 1)
	if !errors.Is(err, domain.ErrInventoryCorruption) {
		t.Fatalf("expected ErrInventoryCorruption, got %v", err)
	}
	if got := seatsOf(t, db, trip.ID); got != 4 {
		t.Fatalf("available seats = %d, want clamped 4", got)
	}
}

func TestReleaseIgnoresSoftDeletedCar(t *testing.T) {
	db := newTestDB(t)
	driver := seedProfile(t, db, "driver")
	car := seedCar(t, db, driver.ID, 4)
	trip := seedTrip(t, db, driver.ID, tripOpts{seats: 4, carID: &car.ID})
	inv := NewInventory(db)

	if err := db.Delete(car).Error; err != nil {
		t.Fatalf("soft-delete car: %v", err)
	}

	// A retired car no longer bounds the counter.
	if err := inv.Release(nil, trip.ID, 1); err != nil {
		t.Fatalf("release after car soft-delete: %v", err)
	}
	if got := seatsOf(t, db, trip.ID); got != 5 {
		t.Fatalf("available seats = %d, want 5", got)
	}
}

func TestReleaseUnboundedWithoutCar(t *testing.T) {
	db := newTestDB(t)
	driver := seedProfile(t, db, "driver")
	trip := seedTrip(t, db, driver.ID, tripOpts{seats: 4})
	inv := NewInventory(db)

	// No car attached: no capacity to clamp against.
	if err := inv.Release(nil, trip.ID, 2); err != nil {
		t.Fatalf("release without car: %v", err)
	}
	if got := seatsOf(t, db, trip.ID); got != 6 {
		t.Fatalf("available seats = %d, want 6", got)
	}
}

// Two concurrent reservations of 3 and 2 against 4 seats: exactly one wins.
func TestConcurrentReservesNeverOverbook(t *testing.T) {
	db := newTestDB(t)
	driver := seedProfile(t, db, "driver")
	trip := seedTrip(t, db, driver.ID, tripOpts{seats: 4})
	inv := NewInventory(db)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, n := range []int{3, 2} {
		wg.Add(1)
		go func(slot, seats int) {
			defer wg.Done()
			errs[slot] = inv.Reserve(nil, trip.ID, seats)
		}(i, n)
	}
	wg.Wait()

	var failed, succeeded int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientSeats):
			failed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || failed != 1 {
		t.Fatalf("succeeded=%d failed=%d, want exactly one of each", succeeded, failed)
	}

	got := seatsOf(t, db, trip.ID)
	if got != 1 && got != 2 {
		t.Fatalf("available seats = %d, want 1 (3-seat win) or 2 (2-seat win)", got)
	}
	if got < 0 {
		t.Fatalf("available seats went negative: %d", got)
	}
}

func TestManyConcurrentSingleSeatReserves(t *testing.T) {
	db := newTestDB(t)
	driver := seedProfile(t, db, "driver")
	trip := seedTrip(t, db, driver.ID, tripOpts{seats: 5})
	inv := NewInventory(db)

	const callers = 20
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- inv.Reserve(nil, trip.ID, 1)
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, domain.ErrInsufficientSeats) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 5 {
		t.Fatalf("wins = %d, want exactly 5", wins)
	}
	if got := seatsOf(t, db, trip.ID); got != 0 {
		t.Fatalf("available seats = %d, want 0", got)
	}
}
