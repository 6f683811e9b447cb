package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quizroom-service/internal/app"
	"quizroom-service/internal/auth"
	"quizroom-service/internal/domain"
)

// questionRequest accepts "question" as an alias for "text".
type questionRequest struct {
	Text          *string  `json:"text"`
	Question      *string  `json:"question"`
	Options       []string `json:"options" validate:"omitempty,len=4"`
	CorrectAnswer *string  `json:"correctAnswer"`
	Sequence      int      `json:"sequenceNumber" validate:"gte=0"`
}

func (q questionRequest) text() *string {
	if q.Text != nil {
		return q.Text
	}
	return q.Question
}

type questionResponse struct {
	Message  string          `json:"message"`
	Question domain.Question `json:"question"`
}

func (a *API) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	in := app.NewQuestionInput{Options: req.Options, Sequence: req.Sequence}
	if text := req.text(); text != nil {
		in.Text = *text
	}
	if req.CorrectAnswer != nil {
		in.CorrectAnswer = *req.CorrectAnswer
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	q, err := a.questions.Add(r.Context(), chi.URLParam(r, "roomId"), userID, in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, questionResponse{Message: "Question added successfully", Question: q})
}

func (a *API) listQuestions(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	view, err := a.questions.ListForRoom(r.Context(), chi.URLParam(r, "roomId"), userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := a.decode(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	patch := domain.QuestionPatch{
		Text:          req.text(),
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	view, err := a.questions.Update(r.Context(), chi.URLParam(r, "roomId"), userID, req.Sequence, patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// deleteQuestionAt takes the sequence number from the body or the
// sequenceNumber query parameter.
func (a *API) deleteQuestionAt(w http.ResponseWriter, r *http.Request) {
	sequence := 0
	if raw := r.URL.Query().Get("sequenceNumber"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			a.writeError(w, r, domain.Invalid("sequenceNumber must be an integer"))
			return
		}
		sequence = n
	} else {
		var req struct {
			Sequence int `json:"sequenceNumber" validate:"required,gt=0"`
		}
		if err := a.decode(w, r, &req); err != nil {
			a.writeError(w, r, err)
			return
		}
		sequence = req.Sequence
	}

	userID, _ := auth.UserIDFromContext(r.Context())
	view, err := a.questions.DeleteAt(r.Context(), chi.URLParam(r, "roomId"), userID, sequence)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) getQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := a.questions.Get(r.Context(), chi.URLParam(r, "questionId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (a *API) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	view, err := a.questions.DeleteByID(r.Context(), chi.URLParam(r, "questionId"), userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
