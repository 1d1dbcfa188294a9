package handler

import (
	"encoding/json"
	"net/http"

	"pairfocus/internal/coordinator"
)

// RoomHandler handles the session-coordinator endpoints
type RoomHandler struct {
	store *coordinator.Store
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(store *coordinator.Store) *RoomHandler {
	return &RoomHandler{store: store}
}

// JoinRequest is the request body for joining a room
type JoinRequest struct {
	RoomName string `json:"room_name"`
	UserID   string `json:"user_id"`
}

// StartRequest is the request body for signalling readiness
type StartRequest struct {
	RoomName        string `json:"room_name"`
	UserID          string `json:"user_id"`
	DurationSeconds int    `json:"duration_seconds"`
}

// CancelRequest is the request body for cancelling a session
type CancelRequest struct {
	RoomName string `json:"room_name"`
	UserID   string `json:"user_id"`
}

// Join handles POST /join_room
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RoomName == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "room_name and user_id are required")
		return
	}

	snap, err := h.store.Join(req.RoomName, req.UserID)
	if err == coordinator.ErrRoomFull {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// Start handles POST /start_timer
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RoomName == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "room_name and user_id are required")
		return
	}

	snap := h.store.Start(req.RoomName, req.UserID, req.DurationSeconds)
	if snap == nil {
		// Missing room is a silent no-op; callers that are slightly out of
		// sync get an empty body rather than an error.
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// Cancel handles POST /cancel_timer
func (h *RoomHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RoomName == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "room_name and user_id are required")
		return
	}

	h.store.Cancel(req.RoomName, req.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "session cancelled"})
}

// Status handles GET /room_status
func (h *RoomHandler) Status(w http.ResponseWriter, r *http.Request) {
	roomName := r.URL.Query().Get("room_name")
	if roomName == "" {
		writeError(w, http.StatusBadRequest, "room_name is required")
		return
	}

	snap, err := h.store.Status(roomName)
	if err == coordinator.ErrRoomNotFound {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snap)
}
