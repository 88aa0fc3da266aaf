package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rideshare/internal/middleware"
	"rideshare/internal/services"
)

type TripController struct {
	trips     *services.Trips
	lifecycle *services.Lifecycle
	workflow  *services.Workflow
}

func NewTripController(trips *services.Trips, lifecycle *services.Lifecycle, workflow *services.Workflow) *TripController {
	return &TripController{trips: trips, lifecycle: lifecycle, workflow: workflow}
}

// pathID parses the :id segment; 0 means it was malformed and a 400 was sent.
func pathID(c *gin.Context) uint {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0
	}
	return uint(id)
}

type createTripInput struct {
	CarID             *uint              `json:"car_id"`
	Route             services.RouteSpec `json:"route" binding:"required"`
	DepartureTime     int64              `json:"departure_time" binding:"required"`
	Price             float64            `json:"price"`
	Seats             int                `json:"seats" binding:"required"`
	IsRecurring       bool               `json:"is_recurring"`
	RecurrencePattern string             `json:"recurrence_pattern"`
	Notes             string             `json:"notes"`
}

func (t *TripController) CreateTrip(c *gin.Context) {
	var input createTripInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip input: " + err.Error()})
		return
	}

	trip, err := t.trips.CreateTrip(services.TripOffer{
		DriverID:          middleware.UserID(c),
		CarID:             input.CarID,
		Route:             input.Route,
		DepartureTime:     input.DepartureTime,
		Price:             input.Price,
		Seats:             input.Seats,
		IsRecurring:       input.IsRecurring,
		RecurrencePattern: input.RecurrencePattern,
		Notes:             input.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"trip": trip})
}

func (t *TripController) GetTrip(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	trip, err := t.trips.GetTrip(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

func (t *TripController) MyTrips(c *gin.Context) {
	trips, err := t.trips.TripsByDriver(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

func (t *TripController) UpdateTrip(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	var patch services.TripPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update"})
		return
	}
	trip, err := t.trips.UpdateTrip(id, middleware.UserID(c), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

func (t *TripController) DeleteTrip(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	if err := t.trips.DeleteTrip(id, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trip deleted"})
}

func (t *TripController) StartTrip(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	trip, err := t.lifecycle.StartTrip(id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

func (t *TripController) CompleteTrip(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	trip, err := t.lifecycle.CompleteTrip(id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

func (t *TripController) CancelTrip(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	trip, err := t.lifecycle.CancelTrip(id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip})
}

// TripBookings is the driver's review queue for one of their trips.
func (t *TripController) TripBookings(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	trip, err := t.trips.GetTrip(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if trip.DriverID != middleware.UserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
		return
	}
	bookings, err := t.workflow.BookingsForTrip(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
