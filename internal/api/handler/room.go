package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"bankroom/internal/api/middleware"
	"bankroom/internal/api/request"
	"bankroom/internal/api/response"
	"bankroom/internal/model"
	"bankroom/internal/services/room"
)

// RoomHandler handles room lifecycle endpoints
type RoomHandler struct {
	roomController *room.Controller
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomController *room.Controller) *RoomHandler {
	return &RoomHandler{
		roomController: roomController,
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller := middleware.MustGetPrincipal(r.Context())

	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Empty body means the caller hosts
		req = request.CreateRoomRequest{}
	}

	hostID := model.PrincipalID(req.HostID)
	if hostID == "" {
		hostID = caller
	}

	snapshot, err := h.roomController.CreateRoom(r.Context(), caller, hostID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SnapshotFromModel(snapshot))
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := model.RoomCode(mux.Vars(r)["code"])

	snapshot, err := h.roomController.GetRoom(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SnapshotFromModel(snapshot))
}

// Join handles POST /api/v1/rooms/{code}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	caller := middleware.MustGetPrincipal(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = request.JoinRoomRequest{}
	}

	principal := model.PrincipalID(req.PrincipalID)
	if principal == "" {
		principal = caller
	}

	if err := h.roomController.JoinRoom(r.Context(), caller, code, principal); err != nil {
		WriteError(w, err)
		return
	}

	snapshot, err := h.roomController.GetRoom(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SnapshotFromModel(snapshot))
}

// Leave handles POST /api/v1/rooms/{code}/leave
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	caller := middleware.MustGetPrincipal(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	var req request.LeaveRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = request.LeaveRoomRequest{}
	}

	principal := model.PrincipalID(req.PrincipalID)
	if principal == "" {
		principal = caller
	}

	if err := h.roomController.LeaveRoom(r.Context(), caller, code, principal); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Start handles POST /api/v1/rooms/{code}/start
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	caller := middleware.MustGetPrincipal(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	if err := h.roomController.StartRoom(r.Context(), caller, code); err != nil {
		WriteError(w, err)
		return
	}

	snapshot, err := h.roomController.GetRoom(r.Context(), code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SnapshotFromModel(snapshot))
}

// Delete handles DELETE /api/v1/rooms/{code}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := middleware.MustGetPrincipal(r.Context())
	code := model.RoomCode(mux.Vars(r)["code"])

	if err := h.roomController.DeleteRoom(r.Context(), caller, code); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
