package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quizroom-service/internal/app"
	"quizroom-service/internal/auth"
	"quizroom-service/internal/domain"
)

// recordResultRequest accepts the legacy roomNumber/total field names.
type recordResultRequest struct {
	UserName       string `json:"userName"`
	RoomID         string `json:"roomId"`
	RoomNumber     string `json:"roomNumber"`
	Score          int    `json:"score"`
	TotalQuestions *int   `json:"totalQuestions"`
	Total          *int   `json:"total"`
}

type resultResponse struct {
	Message string        `json:"message"`
	Result  domain.Result `json:"result"`
}

func (a *API) recordResult(w http.ResponseWriter, r *http.Request) {
	var req recordResultRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	total := 0
	switch {
	case req.TotalQuestions != nil:
		total = *req.TotalQuestions
	case req.Total != nil:
		total = *req.Total
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	result, err := a.results.Record(r.Context(), app.RecordInput{
		UserName:       req.UserName,
		UserID:         userID,
		RoomID:         firstNonEmpty(req.RoomID, req.RoomNumber),
		Score:          req.Score,
		TotalQuestions: total,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resultResponse{Message: "Result saved successfully", Result: result})
}

func (a *API) listResults(w http.ResponseWriter, r *http.Request) {
	results, err := a.results.All(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *API) roomResults(w http.ResponseWriter, r *http.Request) {
	results, err := a.results.ForRoom(r.Context(), chi.URLParam(r, "roomId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := app.DefaultLeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > app.MaxLeaderboardSize {
			a.writeError(w, r, domain.Invalid("limit must be between 1 and %d", app.MaxLeaderboardSize))
			return
		}
		limit = n
	}
	results, err := a.results.Leaderboard(r.Context(), limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
