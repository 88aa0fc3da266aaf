package routes

import (
	"github.com/gin-gonic/gin"

	"rideshare/internal/middleware"
)

func DriverRoutes(r *gin.Engine, ctrl Controllers) {
	driver := r.Group("/driver")
	driver.Use(middleware.RequireAuthWithRole("driver"))
	{
		driver.POST("/cars", ctrl.Auth.AddCar)
		driver.GET("/cars", ctrl.Auth.MyCars)

		driver.POST("/trips", ctrl.Trips.CreateTrip)
		driver.GET("/trips", ctrl.Trips.MyTrips)
		driver.PATCH("/trips/:id", ctrl.Trips.UpdateTrip)
		driver.DELETE("/trips/:id", ctrl.Trips.DeleteTrip)
		driver.POST("/trips/:id/start", ctrl.Trips.StartTrip)
		driver.POST("/trips/:id/complete", ctrl.Trips.CompleteTrip)
		driver.POST("/trips/:id/cancel", ctrl.Trips.CancelTrip)
		driver.GET("/trips/:id/bookings", ctrl.Trips.TripBookings)

		driver.POST("/bookings/:id/accept", ctrl.Bookings.Accept)
		driver.POST("/bookings/:id/reject", ctrl.Bookings.Reject)
	}
}
