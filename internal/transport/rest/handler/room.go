package handler

import (
	"context"
	"net/http"

	"codeduel/internal/model"
	"codeduel/internal/session"
	"codeduel/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type RoomReader interface {
	FindByRoomID(ctx context.Context, roomID string) (*model.Room, error)
}

type SessionReader interface {
	Snapshot(roomID string) (session.Snapshot, bool)
}

// RoomHandler handles room endpoints
type RoomHandler struct {
	rooms    RoomReader
	sessions SessionReader
}

func NewRoomHandler(rooms RoomReader, sessions SessionReader) *RoomHandler {
	return &RoomHandler{rooms: rooms, sessions: sessions}
}

// Get handles GET /v1/rooms/{roomId}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	room, err := h.rooms.FindByRoomID(r.Context(), roomID)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to load room")
		writeError(w, http.StatusInternalServerError, "failed to load room")
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	// Only the host gets to see the room password.
	if middleware.GetUsername(r.Context()) != room.HostUsername {
		room.Password = ""
	}
	writeJSON(w, http.StatusOK, room)
}

// Session handles GET /v1/rooms/{roomId}/session
func (h *RoomHandler) Session(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	snap, ok := h.sessions.Snapshot(roomID)
	if !ok {
		writeError(w, http.StatusNotFound, "no live session")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
