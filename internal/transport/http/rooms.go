package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"quizroom-service/internal/app"
	"quizroom-service/internal/auth"
	"quizroom-service/internal/domain"
)

type createRoomRequest struct {
	RoomCode         string `json:"roomCode"`
	RoomNumber       string `json:"roomNumber"`
	TimeLimit        *int   `json:"timeLimit"`
	TimeLimitMinutes *int   `json:"timeLimitMinutes"`
}

type roomResponse struct {
	Message string      `json:"message"`
	Room    domain.Room `json:"room"`
}

func (a *API) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := a.rooms.List(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (a *API) listMyRooms(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	rooms, err := a.rooms.ListMine(r.Context(), userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (a *API) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	limit := req.TimeLimitMinutes
	if limit == nil {
		limit = req.TimeLimit
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	room, err := a.rooms.Create(r.Context(), userID, app.CreateRoomInput{
		Code:             firstNonEmpty(req.RoomCode, req.RoomNumber),
		TimeLimitMinutes: limit,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, roomResponse{Message: "Room created successfully", Room: room})
}

func (a *API) deleteRoom(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	if err := a.rooms.Delete(r.Context(), chi.URLParam(r, "roomId"), userID); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Room and its questions deleted successfully"})
}
