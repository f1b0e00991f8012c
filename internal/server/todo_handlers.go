package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/Tomlord1122/family-todo/internal/auth"
	"github.com/Tomlord1122/family-todo/internal/service"
)

// callerFamily resolves the authenticated user's family for the todo routes.
func (s *Server) callerFamily(w http.ResponseWriter, r *http.Request) (uint, bool) {
	family, err := s.families.ResolveFamily(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to resolve family")
		return 0, false
	}
	return family.ID, true
}

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	familyID, ok := s.callerFamily(w, r)
	if !ok {
		return
	}

	var req service.CreateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todoResp, err := s.todos.CreateTodo(r.Context(), familyID, auth.UserID(r.Context()), req)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create todo")
		return
	}

	respondWithJSON(w, http.StatusCreated, todoResp)
}

func (s *Server) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	familyID, ok := s.callerFamily(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := service.ListTodosFilter{
		Query:    query.Get("q"),
		Assignee: query.Get("assignee"),
		Status:   query.Get("status"),
	}

	todos, err := s.todos.ListTodos(r.Context(), familyID, filter)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to retrieve todos")
		return
	}

	respondWithJSON(w, http.StatusOK, todos)
}

func (s *Server) getTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	familyID, ok := s.callerFamily(w, r)
	if !ok {
		return
	}

	todo, err := s.todos.GetTodo(r.Context(), id, familyID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to retrieve todo")
		return
	}

	respondWithJSON(w, http.StatusOK, todo)
}

// updateTodoHandler serves PUT and PATCH. Both take a partial body.
func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	familyID, ok := s.callerFamily(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patch, err := service.ParseTodoPatch(body)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update todo")
		return
	}

	updatedTodo, err := s.todos.UpdateTodo(r.Context(), id, familyID, patch)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update todo")
		return
	}

	respondWithJSON(w, http.StatusOK, updatedTodo)
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	familyID, ok := s.callerFamily(w, r)
	if !ok {
		return
	}

	if err := s.todos.DeleteTodo(r.Context(), id, familyID); err != nil {
		respondWithServiceError(w, r, err, "Failed to delete todo")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted"})
}
