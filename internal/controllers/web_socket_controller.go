package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"rideshare/internal/services"
	"rideshare/internal/stream"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

// WatchController serves the live read streams: a client connects to a trip's
// seat counter or booking ledger, receives the current value right away and
// a fresh value after every change, until it disconnects.
type WatchController struct {
	hub       *stream.Hub
	inventory *services.Inventory
	workflow  *services.Workflow
}

func NewWatchController(hub *stream.Hub, inventory *services.Inventory, workflow *services.Workflow) *WatchController {
	return &WatchController{hub: hub, inventory: inventory, workflow: workflow}
}

// WatchSeats handles GET /ws/trips/:id/seats.
func (w *WatchController) WatchSeats(c *gin.Context) {
	tripID := pathID(c)
	if tripID == 0 {
		return
	}
	w.serve(c, services.TripSeatsKey(tripID), func() (interface{}, error) {
		return w.inventory.Seats(tripID)
	})
}

// WatchBookings handles GET /ws/trips/:id/bookings.
func (w *WatchController) WatchBookings(c *gin.Context) {
	tripID := pathID(c)
	if tripID == 0 {
		return
	}
	w.serve(c, services.TripBookingsKey(tripID), func() (interface{}, error) {
		return w.workflow.BookingsForTrip(tripID)
	})
}

// serve upgrades the connection, replays the current value (from the hub when
// retained, otherwise straight from the store) and pumps updates until the
// client goes away.
func (w *WatchController) serve(c *gin.Context, key string, snapshot func() (interface{}, error)) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := w.hub.Subscribe(key)
	defer sub.Cancel()

	// First frame: whatever is current right now.
	select {
	case u := <-sub.C:
		if err := writeUpdate(conn, u); err != nil {
			return
		}
	default:
		payload, err := snapshot()
		if err != nil {
			logrus.WithError(err).WithField("key", key).Warn("watch snapshot failed")
			return
		}
		if err := writeUpdate(conn, stream.Update{Key: key, Payload: payload}); err != nil {
			return
		}
	}

	// Reader goroutine: we never expect client data, only the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case u, ok := <-sub.C:
			if !ok {
				return
			}
			if err := writeUpdate(conn, u); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					logrus.WithError(err).WithField("key", key).Warn("watch write failed")
				}
				return
			}
		case <-done:
			return
		}
	}
}

func writeUpdate(conn *websocket.Conn, u stream.Update) error {
	return conn.WriteJSON(gin.H{"key": u.Key, "data": u.Payload})
}
