package api

import (
	"net/http"

	apperrors "github.com/okian/hackathon/internal/errors"
)

type createTeamRequest struct {
	Name string `json:"name"`
}

type submitRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type leaveResponse struct {
	Left bool `json:"left"`
}

// handleCreateTeam handles POST /v1/hackathons/{title}/teams. The caller
// becomes the founder.
func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := s.core.CreateTeam(r.Context(), r.PathValue("title"), userFrom(r.Context()), req.Name, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, teamOf(t))
}

// handleListTeams handles GET /v1/hackathons/{title}/teams.
func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	ts, err := s.core.Teams(r.Context(), r.PathValue("title"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(ts, teamOf))
}

// handleListMembers handles GET /v1/hackathons/{title}/teams/{team}/members.
func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ms, err := s.core.Members(r.Context(), r.PathValue("title"), r.PathValue("team"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(ms, memberOf))
}

// handleJoinTeam handles POST /v1/hackathons/{title}/teams/{team}/members.
func (s *Server) handleJoinTeam(w http.ResponseWriter, r *http.Request) {
	m, err := s.core.JoinTeam(r.Context(), r.PathValue("title"), r.PathValue("team"), userFrom(r.Context()), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, memberOf(m))
}

// handleLeaveTeam handles DELETE /v1/hackathons/{title}/teams/{team}/members.
func (s *Server) handleLeaveTeam(w http.ResponseWriter, r *http.Request) {
	left, err := s.core.LeaveTeam(r.Context(), r.PathValue("title"), r.PathValue("team"), userFrom(r.Context()), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, leaveResponse{Left: left})
}

// handleSubmit handles POST /v1/hackathons/{title}/teams/{team}/documents.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decode(w, r, &req) {
		return
	}
	d, err := s.core.Submit(r.Context(), r.PathValue("title"), r.PathValue("team"), userFrom(r.Context()),
		req.Title, req.Body, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentOf(d))
}

// handleListDocuments handles GET /v1/hackathons/{title}/teams/{team}/documents.
// With ?title= it returns the first document whose title contains the
// fragment.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	title, team := r.PathValue("title"), r.PathValue("team")
	if fragment := r.URL.Query().Get("title"); fragment != "" {
		d, ok, err := s.core.FindDocumentByTitle(r.Context(), title, team, fragment)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !ok {
			s.writeError(w, r, apperrors.ErrDocumentNotFound.WithMetadata("team", team, "title", fragment))
			return
		}
		writeJSON(w, http.StatusOK, documentOf(d))
		return
	}
	ds, err := s.core.Documents(r.Context(), title, team)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(ds, documentOf))
}

// handleLatestDocument handles GET /v1/hackathons/{title}/teams/{team}/documents/latest.
func (s *Server) handleLatestDocument(w http.ResponseWriter, r *http.Request) {
	d, err := s.core.LatestDocument(r.Context(), r.PathValue("title"), r.PathValue("team"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentOf(d))
}
