package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"rideshare/internal/config"
	"rideshare/internal/models"
)

// newTestDB opens a private in-memory store per test. A single connection
// serializes concurrent writers at the pool, the way a busy embedded store
// behaves, while keeping the conditional-UPDATE semantics under test intact.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, role string) *models.Profile {
	t.Helper()
	p := &models.Profile{
		Name:     role + " tester",
		Email:    fmt.Sprintf("%s-%d-%s@example.com", role, time.Now().UnixNano(), t.Name()),
		Password: "x",
		Role:     role,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed %s profile: %v", role, err)
	}
	return p
}

func seedCar(t *testing.T, db *gorm.DB, driverID uint, seats int) *models.Car {
	t.Helper()
	car := &models.Car{DriverID: driverID, Make: "Toyota", Plate: "KAA 123X", Seats: seats}
	if err := db.Create(car).Error; err != nil {
		t.Fatalf("seed car: %v", err)
	}
	return car
}

func seedRoute(t *testing.T, db *gorm.DB, from, to string) *models.Route {
	t.Helper()
	r := &models.Route{
		StartLocation: from,
		StartAddress:  from + " Ave 1",
		StartLat:      -1.2833,
		StartLng:      36.8167,
		EndLocation:   to,
		EndAddress:    to + " Rd 9",
		EndLat:        -1.3192,
		EndLng:        36.9275,
		Distance:      18.4,
		Duration:      2100,
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed route: %v", err)
	}
	return r
}

type tripOpts struct {
	carID     *uint
	seats     int
	price     float64
	status    models.TripStatus
	departure int64
	routeID   uint
}

func seedTrip(t *testing.T, db *gorm.DB, driverID uint, opts tripOpts) *models.Trip {
	t.Helper()
	if opts.seats == 0 {
		opts.seats = 4
	}
	if opts.status == "" {
		opts.status = models.TripScheduled
	}
	if opts.departure == 0 {
		opts.departure = time.Now().Add(24 * time.Hour).UnixMilli()
	}
	if opts.routeID == 0 {
		opts.routeID = seedRoute(t, db, "Downtown", "Airport").ID
	}
	trip := &models.Trip{
		DriverID:       driverID,
		CarID:          opts.carID,
		RouteID:        opts.routeID,
		DepartureTime:  opts.departure,
		Price:          opts.price,
		AvailableSeats: opts.seats,
		Status:         opts.status,
	}
	if err := db.Create(trip).Error; err != nil {
		t.Fatalf("seed trip: %v", err)
	}
	return trip
}

func seatsOf(t *testing.T, db *gorm.DB, tripID uint) int {
	t.Helper()
	var trip models.Trip
	if err := db.First(&trip, tripID).Error; err != nil {
		t.Fatalf("load trip %d: %v", tripID, err)
	}
	return trip.AvailableSeats
}

func bookingByID(t *testing.T, db *gorm.DB, id uint) *models.TripBooking {
	t.Helper()
	var b models.TripBooking
	if err := db.First(&b, id).Error; err != nil {
		t.Fatalf("load booking %d: %v", id, err)
	}
	return &b
}
