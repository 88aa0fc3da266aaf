package routes

import (
	"github.com/gin-gonic/gin"

	"rideshare/internal/middleware"
)

func PassengerRoutes(r *gin.Engine, ctrl Controllers) {
	// Trip discovery is open to any authenticated user.
	trips := r.Group("/trips")
	trips.Use(middleware.RequireAuth())
	{
		trips.GET("/search", ctrl.Search.SearchTrips)
		trips.GET("/popular", ctrl.Search.PopularTrips)
		trips.GET("/:id", ctrl.Trips.GetTrip)
		trips.GET("/:id/can-book", ctrl.Bookings.CanBook)
	}

	passenger := r.Group("")
	passenger.Use(middleware.RequireAuthWithRole("passenger"))
	{
		passenger.POST("/trips/:id/bookings", ctrl.Bookings.CreateBooking)
		passenger.GET("/bookings", ctrl.Bookings.MyBookings)
		passenger.POST("/bookings/:id/cancel", ctrl.Bookings.Cancel)
		passenger.DELETE("/bookings/:id", ctrl.Bookings.Delete)
		passenger.POST("/bookings/:id/pay", ctrl.Bookings.Pay)
		passenger.POST("/bookings/:id/rate", ctrl.Bookings.Rate)
	}
}
