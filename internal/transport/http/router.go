package http

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"quizroom-service/internal/app"
	"quizroom-service/internal/auth"
)

// Dependencies wires the services behind the HTTP API.
type Dependencies struct {
	Accounts       *app.AccountService
	Rooms          *app.RoomService
	Questions      *app.QuestionService
	Results        *app.ResultService
	Tokens         auth.TokenVerifier
	Logger         *slog.Logger
	AllowedOrigins []string
	// Health, when set, backs /healthz (for example a database ping).
	Health func(ctx context.Context) error
}

// API serves the quiz room endpoints under /api.
type API struct {
	accounts  *app.AccountService
	rooms     *app.RoomService
	questions *app.QuestionService
	results   *app.ResultService
	tokens    auth.TokenVerifier
	logger    *slog.Logger
	origins   []string
	health    func(ctx context.Context) error
	validate  *validator.Validate
	upgrader  websocket.Upgrader
}

func NewAPI(deps Dependencies) *API {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &API{
		accounts:  deps.Accounts,
		rooms:     deps.Rooms,
		questions: deps.Questions,
		results:   deps.Results,
		tokens:    deps.Tokens,
		logger:    logger.With("component", "http"),
		origins:   deps.AllowedOrigins,
		health:    deps.Health,
		validate:  validate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes builds the router.
func (a *API) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(a.logRequests)
	mux.Use(middleware.Recoverer)
	mux.Use(a.corsHandler())

	mux.Get("/healthz", a.healthz)

	guard := auth.Guard(a.tokens, a.logger)
	optional := auth.OptionalGuard(a.tokens)

	mux.Route("/api", func(r chi.Router) {
		r.Post("/register", a.register)
		r.Post("/login", a.login)
		r.Post("/logout", a.logout)

		r.Get("/rooms", a.listRooms)
		r.Get("/results", a.listResults)
		r.Get("/leaderboard", a.leaderboard)
		r.Get("/leaderboard/ws", a.leaderboardWS)
		r.Get("/room/{roomId}/results", a.roomResults)
		r.With(optional).Post("/results", a.recordResult)

		r.Group(func(r chi.Router) {
			r.Use(guard)

			r.Get("/me", a.me)
			r.Get("/rooms/mine", a.listMyRooms)

			r.Post("/room", a.createRoom)
			r.Delete("/room/{roomId}", a.deleteRoom)

			r.Post("/room/{roomId}/question", a.addQuestion)
			r.Get("/room/{roomId}/questions", a.listQuestions)
			r.Put("/room/question/{roomId}", a.updateQuestion)
			r.Delete("/room/question/{roomId}", a.deleteQuestionAt)

			r.Get("/question/{questionId}", a.getQuestion)
			r.Delete("/question/{questionId}", a.deleteQuestion)
		})
	})

	return mux
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.health(ctx); err != nil {
			a.logger.Warn("health check failed", "error", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	_, _ = w.Write([]byte("ok"))
}

func (a *API) corsHandler() func(http.Handler) http.Handler {
	if len(a.origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   a.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// logRequests writes one structured line per request.
func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
