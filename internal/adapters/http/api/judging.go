package api

import (
	"net/http"

	"github.com/okian/hackathon/internal/domain/model"
)

type inviteRequest struct {
	Invitee string `json:"invitee"`
}

type voteRequest struct {
	Score int `json:"score"`
}

type evaluationRequest struct {
	Text string `json:"text"`
}

// handleInvite handles POST /v1/hackathons/{title}/invitations.
func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !decode(w, r, &req) {
		return
	}
	inv, err := s.core.Invite(r.Context(), userFrom(r.Context()), req.Invitee, r.PathValue("title"), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, invitationOf(inv))
}

// handleListInvitations handles GET /v1/hackathons/{title}/invitations.
func (s *Server) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	invs, err := s.core.Invitations(r.Context(), r.PathValue("title"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(invs, invitationOf))
}

// handleAccept handles POST /v1/hackathons/{title}/invitations/accept.
func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	inv, err := s.core.Accept(r.Context(), userFrom(r.Context()), r.PathValue("title"), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invitationOf(inv))
}

// handleDecline handles POST /v1/hackathons/{title}/invitations/decline.
func (s *Server) handleDecline(w http.ResponseWriter, r *http.Request) {
	inv, err := s.core.Decline(r.Context(), userFrom(r.Context()), r.PathValue("title"), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invitationOf(inv))
}

// handleListJudges handles GET /v1/hackathons/{title}/judges.
func (s *Server) handleListJudges(w http.ResponseWriter, r *http.Request) {
	judges, err := s.core.Judges(r.Context(), r.PathValue("title"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if judges == nil {
		judges = []string{}
	}
	writeJSON(w, http.StatusOK, judges)
}

// handleVote handles POST /v1/hackathons/{title}/teams/{team}/votes.
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := s.core.RecordVote(r.Context(), userFrom(r.Context()), r.PathValue("title"), r.PathValue("team"),
		req.Score, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, voteOf(v))
}

// handleListVotes handles GET /v1/hackathons/{title}/votes.
func (s *Server) handleListVotes(w http.ResponseWriter, r *http.Request) {
	vs, err := s.core.Votes(r.Context(), r.PathValue("title"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(vs, voteOf))
}

func voteOf(v model.Vote) voteView {
	return voteView{ID: v.ID, Team: v.Team, Judge: v.Judge, Score: v.Score, CastAt: v.CastAt}
}

// handleEvaluate handles POST /v1/documents/{id}/evaluations.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluationRequest
	if !decode(w, r, &req) {
		return
	}
	e, err := s.core.RecordEvaluation(r.Context(), userFrom(r.Context()), r.PathValue("id"), req.Text, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, evaluationOf(e))
}

// handleListEvaluations handles GET /v1/documents/{id}/evaluations.
func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	es, err := s.core.Evaluations(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(es, evaluationOf))
}
