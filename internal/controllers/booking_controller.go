package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rideshare/internal/middleware"
	"rideshare/internal/services"
)

type BookingController struct {
	workflow *services.Workflow
}

func NewBookingController(workflow *services.Workflow) *BookingController {
	return &BookingController{workflow: workflow}
}

type createBookingInput struct {
	Seats           int      `json:"seats" binding:"required"`
	PickupLocation  string   `json:"pickup_location"`
	PickupLat       *float64 `json:"pickup_lat"`
	PickupLng       *float64 `json:"pickup_lng"`
	DropoffLocation string   `json:"dropoff_location"`
	DropoffLat      *float64 `json:"dropoff_lat"`
	DropoffLng      *float64 `json:"dropoff_lng"`
}

// CreateBooking handles POST /trips/:id/bookings.
func (b *BookingController) CreateBooking(c *gin.Context) {
	tripID := pathID(c)
	if tripID == 0 {
		return
	}
	var input createBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking input: " + err.Error()})
		return
	}

	booking, err := b.workflow.CreateBookingRequest(services.BookingRequest{
		TripID:          tripID,
		PassengerID:     middleware.UserID(c),
		Seats:           input.Seats,
		PickupLocation:  input.PickupLocation,
		PickupLat:       input.PickupLat,
		PickupLng:       input.PickupLng,
		DropoffLocation: input.DropoffLocation,
		DropoffLat:      input.DropoffLat,
		DropoffLng:      input.DropoffLng,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// CanBook handles GET /trips/:id/can-book, the booking-form pre-flight.
func (b *BookingController) CanBook(c *gin.Context) {
	tripID := pathID(c)
	if tripID == 0 {
		return
	}
	eligibility, err := b.workflow.CanUserBookTrip(tripID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"can_book": eligibility.OK(),
		"reason":   eligibility.String(),
	})
}

func (b *BookingController) Accept(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	booking, err := b.workflow.AcceptBookingRequest(id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (b *BookingController) Reject(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body) // reason is optional

	booking, err := b.workflow.RejectBookingRequest(id, middleware.UserID(c), body.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (b *BookingController) Cancel(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	booking, err := b.workflow.CancelBookingRequest(id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (b *BookingController) Delete(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	if err := b.workflow.DeleteBooking(id, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted"})
}

func (b *BookingController) Pay(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	booking, err := b.workflow.MarkBookingPaid(id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (b *BookingController) Rate(c *gin.Context) {
	id := pathID(c)
	if id == 0 {
		return
	}
	var body struct {
		Rating int    `json:"rating" binding:"required"`
		Review string `json:"review"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rating input: " + err.Error()})
		return
	}
	booking, err := b.workflow.RateBooking(id, middleware.UserID(c), body.Rating, body.Review)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

func (b *BookingController) MyBookings(c *gin.Context) {
	bookings, err := b.workflow.BookingsForPassenger(middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
