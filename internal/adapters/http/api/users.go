package api

import (
	"net/http"

	"github.com/okian/hackathon/internal/domain/model"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// handleRegisterUser handles POST /v1/users.
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := s.core.RegisterUser(r.Context(), req.Name, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userView{Name: u.Name, CreatedAt: u.CreatedAt})
}

// handleIssueToken handles POST /v1/tokens.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := s.core.Authenticate(r.Context(), req.Name, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	token, expires, err := s.tokens.Issue(u.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenView{Token: token, ExpiresAt: expires})
}

// handleCapabilities handles GET /v1/me/capabilities.
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	caps, err := s.core.Capabilities(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if caps == nil {
		caps = []model.Capability{}
	}
	writeJSON(w, http.StatusOK, caps)
}

// handleMyInvitations handles GET /v1/me/invitations.
func (s *Server) handleMyInvitations(w http.ResponseWriter, r *http.Request) {
	invs, err := s.core.InvitationsFor(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(invs, invitationOf))
}
