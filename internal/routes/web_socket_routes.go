package routes

import (
	"github.com/gin-gonic/gin"

	"rideshare/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine, watch *controllers.WatchController) {
	ws := r.Group("/ws")
	{
		ws.GET("/trips/:id/seats", watch.WatchSeats)
		ws.GET("/trips/:id/bookings", watch.WatchBookings)
	}
}
