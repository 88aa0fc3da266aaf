package services

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"rideshare/internal/domain"
	"rideshare/internal/models"
)

// Profiles is the identity/rating collaborator boundary: the core only needs
// profile lookup (rating, name, trip count) and car lookup (capacity,
// amenities), plus the minimal signup/login that issues those identities.
type Profiles struct {
	db *gorm.DB
}

func NewProfiles(db *gorm.DB) *Profiles {
	return &Profiles{db: db}
}

type SignupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

func (p *Profiles) Signup(input SignupInput) (*models.Profile, error) {
	role := strings.ToLower(strings.TrimSpace(input.Role))
	if role == "" {
		role = "passenger"
	}
	if role != "driver" && role != "passenger" {
		return nil, domain.ValidationError{Field: "role", Msg: "must be driver or passenger"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.DataAccessError{Op: "password hash", Err: err}
	}

	profile := models.Profile{
		Name:     input.Name,
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Password: string(hash),
		Phone:    input.Phone,
		Role:     role,
	}
	if err := p.db.Create(&profile).Error; err != nil {
		return nil, domain.FromStore("profile create", "profile", err)
	}
	return &profile, nil
}

func (p *Profiles) Login(email, password string) (*models.Profile, error) {
	var profile models.Profile
	err := p.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&profile).Error
	if err != nil {
		return nil, domain.FromStore("login", "profile", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(password)); err != nil {
		return nil, domain.ValidationError{Field: "password", Msg: "incorrect password"}
	}
	return &profile, nil
}

// GetProfile resolves a profile by id for filtering and display.
func (p *Profiles) GetProfile(id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := p.db.First(&profile, id).Error; err != nil {
		return nil, domain.FromStore("profile get", "profile", err)
	}
	return &profile, nil
}

type CarInput struct {
	Make      string `json:"make" binding:"required"`
	Plate     string `json:"plate" binding:"required"`
	Seats     int    `json:"seats" binding:"required"`
	Amenities string `json:"amenities"`
}

// AddCar registers a car under a driver's profile.
func (p *Profiles) AddCar(driverID uint, input CarInput) (*models.Car, error) {
	if input.Seats < 1 {
		return nil, domain.ValidationError{Field: "seats", Msg: "must be at least 1"}
	}
	var driver models.Profile
	if err := p.db.First(&driver, driverID).Error; err != nil {
		return nil, domain.FromStore("car create", "profile", err)
	}
	if driver.Role != "driver" {
		return nil, domain.ConflictError{Resource: "profile", Msg: "only drivers can register cars"}
	}

	car := models.Car{
		DriverID:  driverID,
		Make:      input.Make,
		Plate:     input.Plate,
		Seats:     input.Seats,
		Amenities: input.Amenities,
	}
	if err := p.db.Create(&car).Error; err != nil {
		return nil, domain.FromStore("car create", "car", err)
	}
	return &car, nil
}

// CarsByDriver lists a driver's registered cars.
func (p *Profiles) CarsByDriver(driverID uint) ([]models.Car, error) {
	var cars []models.Car
	if err := p.db.Where("driver_id = ?", driverID).Find(&cars).Error; err != nil {
		return nil, domain.FromStore("car list", "car", err)
	}
	return cars, nil
}
