package server

import (
	"errors"
	"net/http"

	"github.com/Tomlord1122/family-todo/internal/auth"
	"github.com/Tomlord1122/family-todo/internal/service"
)

type createInviteRequest struct {
	UserID uint `json:"userId"`
}

func (s *Server) getFamilyHandler(w http.ResponseWriter, r *http.Request) {
	family, err := s.families.GetFamily(r.Context(), auth.UserID(r.Context()))
	if errors.Is(err, service.ErrNotInFamily) {
		respondWithError(w, http.StatusNotFound, "You are not a member of any family")
		return
	}
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to retrieve family")
		return
	}

	respondWithJSON(w, http.StatusOK, family)
}

func (s *Server) listMembersHandler(w http.ResponseWriter, r *http.Request) {
	members, err := s.families.ListMembers(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to retrieve family members")
		return
	}

	respondWithJSON(w, http.StatusOK, members)
}

func (s *Server) searchUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.families.SearchEligibleUsers(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to search users")
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}

func (s *Server) createInviteHandler(w http.ResponseWriter, r *http.Request) {
	var req createInviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	invite, err := s.invites.CreateInvite(r.Context(), auth.UserID(r.Context()), req.UserID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create invite")
		return
	}

	respondWithJSON(w, http.StatusCreated, invite)
}

func (s *Server) listInvitesHandler(w http.ResponseWriter, r *http.Request) {
	invites, err := s.invites.ListInvites(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to retrieve invites")
		return
	}

	respondWithJSON(w, http.StatusOK, invites)
}
