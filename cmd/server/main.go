package main

import (
	"log"
	"net/http"
	"os"

	"rideshare/internal/config"
	"rideshare/internal/controllers"
	"rideshare/internal/logger"
	"rideshare/internal/routes"
	"rideshare/internal/services"
	"rideshare/internal/stream"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	db, err := config.OpenDB()
	if err != nil {
		log.Fatalf("database setup failed: %v", err)
	}

	hub := stream.NewHub()

	inventory := services.NewInventory(db)
	workflow := services.NewWorkflow(db, inventory, hub)
	lifecycle := services.NewLifecycle(db, inventory, workflow, hub)
	trips := services.NewTrips(db, hub)
	search := services.NewSearch(db)
	profiles := services.NewProfiles(db)

	r := routes.SetupRouter(routes.Controllers{
		Auth:     controllers.NewAuthController(profiles),
		Trips:    controllers.NewTripController(trips, lifecycle, workflow),
		Bookings: controllers.NewBookingController(workflow),
		Search:   controllers.NewSearchController(search),
		Watch:    controllers.NewWatchController(hub, inventory, workflow),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server running at :%s", port)
	log.Fatal(http.ListenAndServe("0.0.0.0:"+port, r))
}
