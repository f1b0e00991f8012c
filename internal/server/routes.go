package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Tomlord1122/family-todo/internal/service"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.HelloWorldHandler)

	r.Get("/health", s.healthHandler)

	r.Post("/auth/signup", s.signupHandler)
	r.Post("/auth/login", s.loginHandler)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/auth/join", s.joinFamilyHandler)
		r.Post("/invites/join", s.joinFamilyHandler)
		r.Get("/invites", s.listInvitesHandler)

		r.Get("/family", s.getFamilyHandler)
		r.Get("/family/members", s.listMembersHandler)
		r.Post("/family/invite", s.createInviteHandler)
		r.Get("/users/search", s.searchUsersHandler)

		r.Route("/todos", func(r chi.Router) {
			r.Post("/", s.createTodoHandler)
			r.Get("/", s.listTodosHandler)
			r.Get("/{id}", s.getTodoHandler)
			r.Put("/{id}", s.updateTodoHandler)
			r.Patch("/{id}", s.updateTodoHandler)
			r.Delete("/{id}", s.deleteTodoHandler)
		})
	})

	return r
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Hello World from Family Todo!"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.db.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}

// decodeJSON decodes the request body into dst and writes a 400 describing
// the problem when it can't. It reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if err == nil {
		return true
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var maxBytesError *http.MaxBytesError
	if errors.As(err, &syntaxError) {
		msg := fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset)
		respondWithError(w, http.StatusBadRequest, msg)
	} else if errors.Is(err, io.ErrUnexpectedEOF) {
		msg := "Request body contains badly-formed JSON"
		respondWithError(w, http.StatusBadRequest, msg)
	} else if errors.As(err, &unmarshalTypeError) {
		msg := fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset)
		respondWithError(w, http.StatusBadRequest, msg)
	} else if strings.HasPrefix(err.Error(), "json: unknown field ") {
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		msg := fmt.Sprintf("Request body contains unknown field %s", fieldName)
		respondWithError(w, http.StatusBadRequest, msg)
	} else if errors.Is(err, io.EOF) {
		msg := "Request body must not be empty"
		respondWithError(w, http.StatusBadRequest, msg)
	} else if errors.As(err, &maxBytesError) {
		msg := fmt.Sprintf("Request body must not be larger than %d bytes", maxBytesError.Limit)
		respondWithError(w, http.StatusRequestEntityTooLarge, msg)
	} else {
		slog.ErrorContext(r.Context(), "decode request body", "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Error processing request")
	}
	return false
}

// respondWithServiceError maps service errors onto status codes. Anything it
// does not recognise is logged and reported as a 500 with fallback as the
// message.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		respondWithError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, http.StatusBadRequest, "Invalid email or password")
	case errors.Is(err, service.ErrInvalidToken):
		respondWithError(w, http.StatusBadRequest, "Invalid or already used invite token")
	case errors.Is(err, service.ErrNotInFamily):
		respondWithError(w, http.StatusBadRequest, "You are not a member of any family")
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, service.ErrUserNotFound):
		respondWithError(w, http.StatusBadRequest, "User not found")
	case errors.Is(err, service.ErrTodoNotFound):
		respondWithError(w, http.StatusNotFound, "Todo not found")
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrConflict):
		respondWithError(w, http.StatusConflict, "Conflict")
	default:
		slog.ErrorContext(r.Context(), fallback,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid todo ID provided")
		return 0, false
	}
	return uint(id), true
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
