package routes

import (
	"github.com/gin-contrib/cors"
	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"rideshare/internal/controllers"
	"rideshare/internal/middleware"
)

// Controllers bundles everything the router wires up.
type Controllers struct {
	Auth     *controllers.AuthController
	Trips    *controllers.TripController
	Bookings *controllers.BookingController
	Search   *controllers.SearchController
	Watch    *controllers.WatchController
}

func SetupRouter(ctrl Controllers) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(ginlogger.SetLogger())
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
	}))

	AuthRoutes(r, ctrl.Auth)
	DriverRoutes(r, ctrl)
	PassengerRoutes(r, ctrl)
	WebSocketRoutes(r, ctrl.Watch)

	return r
}
