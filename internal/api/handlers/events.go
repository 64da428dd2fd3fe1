package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// EventStream upgrades a request to a websocket change feed.
type EventStream interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
}

// EventsHandler exposes the live collection feed.
type EventsHandler struct {
	stream EventStream
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(stream EventStream) *EventsHandler {
	return &EventsHandler{stream: stream}
}

// RegisterRoutes registers the events route on the given router group.
func (h *EventsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/events", h.Stream)
}

// Stream pushes package and customer snapshots over a websocket.
// GET /api/v1/events
func (h *EventsHandler) Stream(c *gin.Context) {
	h.stream.HandleWebSocket(c.Writer, c.Request)
}
