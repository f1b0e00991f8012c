package server

import (
	"net/http"

	"github.com/Tomlord1122/family-todo/internal/auth"
	"github.com/Tomlord1122/family-todo/internal/service"
)

type joinRequest struct {
	InviteToken string `json:"inviteToken"`
	Token       string `json:"token"`
}

type joinResponse struct {
	Message string                  `json:"message"`
	Family  *service.FamilyResponse `json:"family"`
}

func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.auth.Signup(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to sign up")
		return
	}

	respondWithJSON(w, http.StatusCreated, resp)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.auth.Login(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to log in")
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// joinFamilyHandler serves both /auth/join and /invites/join.
func (s *Server) joinFamilyHandler(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token := req.InviteToken
	if token == "" {
		token = req.Token
	}

	family, err := s.invites.RedeemInvite(r.Context(), auth.UserID(r.Context()), token)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to join family")
		return
	}

	respondWithJSON(w, http.StatusOK, joinResponse{
		Message: "Successfully joined family " + family.Name,
		Family:  family,
	})
}
