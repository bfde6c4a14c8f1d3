package api

import (
	"net/http"
	"time"

	service "github.com/okian/hackathon/internal/app"
	"github.com/okian/hackathon/internal/domain/model"
)

// createHackathonRequest omits the organizer; it is the caller.
type createHackathonRequest struct {
	Title             string    `json:"title"`
	Venue             string    `json:"venue"`
	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
	EventStart        time.Time `json:"event_start"`
	EventEnd          time.Time `json:"event_end"`
	MaxParticipants   int       `json:"max_participants"`
	MaxTeamSize       int       `json:"max_team_size"`
	ProblemStatement  string    `json:"problem_statement"`
}

type problemStatementRequest struct {
	Text string `json:"text"`
}

// handleCreateHackathon handles POST /v1/hackathons.
func (s *Server) handleCreateHackathon(w http.ResponseWriter, r *http.Request) {
	var req createHackathonRequest
	if !decode(w, r, &req) {
		return
	}
	now := s.now()
	h, err := s.core.CreateHackathon(r.Context(), service.HackathonInput{
		Title:             req.Title,
		Organizer:         userFrom(r.Context()),
		Venue:             req.Venue,
		RegistrationStart: req.RegistrationStart,
		RegistrationEnd:   req.RegistrationEnd,
		EventStart:        req.EventStart,
		EventEnd:          req.EventEnd,
		MaxParticipants:   req.MaxParticipants,
		MaxTeamSize:       req.MaxTeamSize,
		ProblemStatement:  req.ProblemStatement,
	}, now)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, hackathonOf(h, now))
}

// handleListHackathons handles GET /v1/hackathons.
func (s *Server) handleListHackathons(w http.ResponseWriter, r *http.Request) {
	hs, err := s.core.Hackathons(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	now := s.now()
	writeJSON(w, http.StatusOK, mapSlice(hs, func(h model.Hackathon) hackathonView { return hackathonOf(h, now) }))
}

// handleGetHackathon handles GET /v1/hackathons/{title}.
func (s *Server) handleGetHackathon(w http.ResponseWriter, r *http.Request) {
	h, err := s.core.Hackathon(r.Context(), r.PathValue("title"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hackathonOf(h, s.now()))
}

// handleSetProblemStatement handles PUT /v1/hackathons/{title}/problem-statement.
func (s *Server) handleSetProblemStatement(w http.ResponseWriter, r *http.Request) {
	var req problemStatementRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.core.SetProblemStatement(r.Context(), userFrom(r.Context()), r.PathValue("title"), req.Text); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerateRanking handles POST /v1/hackathons/{title}/ranking. Any
// authenticated user may trigger it; the result is the same for everyone.
func (s *Server) handleGenerateRanking(w http.ResponseWriter, r *http.Request) {
	entries, err := s.core.GenerateRanking(r.Context(), r.PathValue("title"), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGetRanking handles GET /v1/hackathons/{title}/ranking.
func (s *Server) handleGetRanking(w http.ResponseWriter, r *http.Request) {
	entries, err := s.core.Ranking(r.Context(), r.PathValue("title"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
