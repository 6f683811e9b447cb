package http

import (
	"errors"
	"net/http"

	"quizroom-service/internal/app"
	"quizroom-service/internal/auth"
	"quizroom-service/internal/domain"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Expiry int64  `json:"expiry"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	user, err := a.accounts.Register(r.Context(), app.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// registration conflicts are reported as bad requests
		if errors.Is(err, domain.ErrConflict) {
			a.writeErrorStatus(w, r, http.StatusBadRequest, err)
			return
		}
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	login := firstNonEmpty(req.UsernameOrEmail, req.Username, req.Email)
	token, err := a.accounts.Login(r.Context(), login, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:  token.Value,
		UserID: token.UserID,
		Expiry: token.ExpiresAt.Unix(),
	})
}

// logout is a no-op: tokens are stateless and expire on their own.
func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	user, err := a.accounts.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrUnauthenticated
		}
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
