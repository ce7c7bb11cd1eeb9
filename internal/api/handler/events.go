package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"bankroom/internal/api/middleware"
	"bankroom/internal/api/sse"
	"bankroom/internal/model"
	"bankroom/internal/services/room"
)

// EventsHandler streams room change events over SSE
type EventsHandler struct {
	roomController *room.Controller
	hubManager     *sse.HubManager
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(roomController *room.Controller, hubManager *sse.HubManager) *EventsHandler {
	return &EventsHandler{
		roomController: roomController,
		hubManager:     hubManager,
	}
}

// Stream handles GET /api/v1/rooms/{code}/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	principal := middleware.MustGetPrincipal(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	// Reject streams for rooms that don't exist
	if _, err := h.roomController.GetRoom(r.Context(), code); err != nil {
		WriteError(w, err)
		return
	}

	hub, err := h.hubManager.GetOrCreateHub(code)
	if err != nil {
		WriteError(w, err)
		return
	}

	sse.ServeSSE(w, r, hub, principal)
}
