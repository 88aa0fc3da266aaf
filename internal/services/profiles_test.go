package services

import (
	"testing"

	"rideshare/internal/domain"
)

func TestSignupAndLogin(t *testing.T) {
	db := newTestDB(t)
	p := NewProfiles(db)

	created, err := p.Signup(SignupInput{
		Name:     "Asha",
		Email:    " Asha@Example.com ",
		Password: "s3cret",
		Role:     "driver",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if created.Email != "asha@example.com" {
		t.Fatalf("email not normalized: %q", created.Email)
	}
	if created.Password == "s3cret" {
		t.Fatal("password stored in plaintext")
	}

	logged, err := p.Login("asha@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != created.ID {
		t.Fatalf("logged in as %d, want %d", logged.ID, created.ID)
	}

	if _, err := p.Login("asha@example.com", "wrong"); !domain.IsValidation(err) {
		t.Fatalf("bad password: expected ValidationError, got %v", err)
	}
	if _, err := p.Login("nobody@example.com", "s3cret"); !domain.IsNotFound(err) {
		t.Fatalf("unknown email: expected NotFoundError, got %v", err)
	}
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	db := newTestDB(t)
	p := NewProfiles(db)

	input := SignupInput{Name: "Asha", Email: "asha@example.com", Password: "x"}
	if _, err := p.Signup(input); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := p.Signup(input); err == nil {
		t.Fatal("duplicate email accepted")
	}
}

func TestSignupRejectsUnknownRole(t *testing.T) {
	db := newTestDB(t)
	p := NewProfiles(db)

	if _, err := p.Signup(SignupInput{Name: "x", Email: "x@example.com", Password: "x", Role: "admin"}); !domain.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	created, err := p.Signup(SignupInput{Name: "x", Email: "y@example.com", Password: "x"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if created.Role != "passenger" {
		t.Fatalf("default role = %q, want passenger", created.Role)
	}
}

func TestAddCarRequiresDriverRole(t *testing.T) {
	db := newTestDB(t)
	p := NewProfiles(db)
	driver := seedProfile(t, db, "driver")
	passenger := seedProfile(t, db, "passenger")

	if _, err := p.AddCar(passenger.ID, CarInput{Make: "Toyota", Plate: "KBB 001A", Seats: 4}); !domain.IsConflict(err) {
		t.Fatalf("passenger car: expected ConflictError, got %v", err)
	}
	if _, err := p.AddCar(driver.ID, CarInput{Make: "Toyota", Plate: "KBB 001A", Seats: 0}); !domain.IsValidation(err) {
		t.Fatalf("zero seats: expected ValidationError, got %v", err)
	}

	car, err := p.AddCar(driver.ID, CarInput{Make: "Toyota", Plate: "KBB 001A", Seats: 4, Amenities: "AC"})
	if err != nil {
		t.Fatalf("add car: %v", err)
	}
	if car.DriverID != driver.ID {
		t.Fatalf("car owner = %d, want %d", car.DriverID, driver.ID)
	}

	cars, err := p.CarsByDriver(driver.ID)
	if err != nil {
		t.Fatalf("list cars: %v", err)
	}
	if len(cars) != 1 {
		t.Fatalf("cars = %d, want 1", len(cars))
	}
}
