// Package api binds the hackathon service to JSON over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	service "github.com/okian/hackathon/internal/app"
	"github.com/okian/hackathon/internal/domain/model"
	apperrors "github.com/okian/hackathon/internal/errors"
	"github.com/okian/hackathon/pkg/logger"
)

// maxBodyBytes caps request bodies; documents are the largest payload.
const maxBodyBytes = 1 << 20

// Core is the service surface the handlers call. *service.Service
// satisfies it.
type Core interface {
	RegisterUser(ctx context.Context, name, password string) (model.User, error)
	Authenticate(ctx context.Context, name, password string) (model.User, error)
	Capabilities(ctx context.Context, name string) ([]model.Capability, error)

	CreateHackathon(ctx context.Context, in service.HackathonInput, now time.Time) (model.Hackathon, error)
	Hackathon(ctx context.Context, title string) (model.Hackathon, error)
	Hackathons(ctx context.Context) ([]model.Hackathon, error)
	SetProblemStatement(ctx context.Context, actor, title, text string) error

	CreateTeam(ctx context.Context, title, founder, name string, now time.Time) (model.Team, error)
	JoinTeam(ctx context.Context, title, team, user string, now time.Time) (model.Membership, error)
	LeaveTeam(ctx context.Context, title, team, user string, now time.Time) (bool, error)
	Teams(ctx context.Context, title string) ([]model.Team, error)
	Members(ctx context.Context, title, team string) ([]model.Membership, error)

	Submit(ctx context.Context, title, team, submitter, docTitle, body string, now time.Time) (model.Document, error)
	Documents(ctx context.Context, title, team string) ([]model.Document, error)
	LatestDocument(ctx context.Context, title, team string) (model.Document, error)
	FindDocumentByTitle(ctx context.Context, title, team, fragment string) (model.Document, bool, error)

	Invite(ctx context.Context, organizer, invitee, title string, now time.Time) (model.Invitation, error)
	Accept(ctx context.Context, invitee, title string, now time.Time) (model.Invitation, error)
	Decline(ctx context.Context, invitee, title string, now time.Time) (model.Invitation, error)
	Invitations(ctx context.Context, title string) ([]model.Invitation, error)
	InvitationsFor(ctx context.Context, user string) ([]model.Invitation, error)
	Judges(ctx context.Context, title string) ([]string, error)

	RecordVote(ctx context.Context, judge, title, team string, score int, now time.Time) (model.Vote, error)
	Votes(ctx context.Context, title string) ([]model.Vote, error)
	RecordEvaluation(ctx context.Context, judge, documentID, text string, now time.Time) (model.Evaluation, error)
	Evaluations(ctx context.Context, documentID string) ([]model.Evaluation, error)
	GenerateRanking(ctx context.Context, title string, now time.Time) ([]model.RankingEntry, error)
	Ranking(ctx context.Context, title string) ([]model.RankingEntry, error)
}

var _ Core = (*service.Service)(nil)

// Server wires HTTP routes for the business API.
type Server struct {
	core   Core
	tokens *Tokens
	clock  func() time.Time
	log    logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithClock sets the clock that supplies "now" to every temporal rule.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server.
func NewServer(core Core, tokens *Tokens, opts ...Option) *Server {
	s := &Server{
		core:   core,
		tokens: tokens,
		clock:  time.Now,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}
	auth := s.authenticated

	route("GET /healthz", "healthz", handleHealth)
	mux.Handle("GET /metrics", metricsHandler())

	route("POST /v1/users", "register_user", s.handleRegisterUser)
	route("POST /v1/tokens", "issue_token", s.handleIssueToken)
	route("GET /v1/me/capabilities", "capabilities", auth(s.handleCapabilities))
	route("GET /v1/me/invitations", "my_invitations", auth(s.handleMyInvitations))

	route("POST /v1/hackathons", "create_hackathon", auth(s.handleCreateHackathon))
	route("GET /v1/hackathons", "list_hackathons", s.handleListHackathons)
	route("GET /v1/hackathons/{title}", "get_hackathon", s.handleGetHackathon)
	route("PUT /v1/hackathons/{title}/problem-statement", "set_problem_statement", auth(s.handleSetProblemStatement))

	route("POST /v1/hackathons/{title}/teams", "create_team", auth(s.handleCreateTeam))
	route("GET /v1/hackathons/{title}/teams", "list_teams", s.handleListTeams)
	route("GET /v1/hackathons/{title}/teams/{team}/members", "list_members", s.handleListMembers)
	route("POST /v1/hackathons/{title}/teams/{team}/members", "join_team", auth(s.handleJoinTeam))
	route("DELETE /v1/hackathons/{title}/teams/{team}/members", "leave_team", auth(s.handleLeaveTeam))

	route("POST /v1/hackathons/{title}/teams/{team}/documents", "submit_document", auth(s.handleSubmit))
	route("GET /v1/hackathons/{title}/teams/{team}/documents", "list_documents", s.handleListDocuments)
	route("GET /v1/hackathons/{title}/teams/{team}/documents/latest", "latest_document", s.handleLatestDocument)

	route("POST /v1/hackathons/{title}/invitations", "invite_judge", auth(s.handleInvite))
	route("GET /v1/hackathons/{title}/invitations", "list_invitations", s.handleListInvitations)
	route("POST /v1/hackathons/{title}/invitations/accept", "accept_invitation", auth(s.handleAccept))
	route("POST /v1/hackathons/{title}/invitations/decline", "decline_invitation", auth(s.handleDecline))
	route("GET /v1/hackathons/{title}/judges", "list_judges", s.handleListJudges)

	route("POST /v1/hackathons/{title}/teams/{team}/votes", "record_vote", auth(s.handleVote))
	route("GET /v1/hackathons/{title}/votes", "list_votes", s.handleListVotes)
	route("POST /v1/documents/{id}/evaluations", "record_evaluation", auth(s.handleEvaluate))
	route("GET /v1/documents/{id}/evaluations", "list_evaluations", s.handleListEvaluations)
	route("POST /v1/hackathons/{title}/ranking", "generate_ranking", auth(s.handleGenerateRanking))
	route("GET /v1/hackathons/{title}/ranking", "get_ranking", s.handleGetRanking)
}

func (s *Server) now() time.Time { return s.clock().UTC() }

type errorResponse struct {
	Code     string                  `json:"code"`
	Kind     string                  `json:"kind,omitempty"`
	Message  string                  `json:"message"`
	Metadata map[string]string       `json:"metadata,omitempty"`
	Missing  []apperrors.MissingVote `json:"missing,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeError renders a service failure with the status its kind maps to.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	status := statusOf(kind)
	resp := errorResponse{
		Code:     string(apperrors.CodeOf(err)),
		Kind:     string(kind),
		Message:  err.Error(),
		Metadata: apperrors.MetadataOf(err),
	}
	var incomplete *apperrors.IncompleteJudgingError
	if errors.As(err, &incomplete) {
		resp.Missing = incomplete.Missing
	}
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path), logger.String("method", r.Method), logger.Error(err))
		// storage detail stays in the log
		resp.Message = http.StatusText(status)
		resp.Metadata = nil
	}
	writeJSON(w, status, resp)
}

func statusOf(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindAuthorization:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict, apperrors.KindScheduleConflict, apperrors.KindCapacity, apperrors.KindIncompleteJudging:
		return http.StatusConflict
	case apperrors.KindWindow:
		return http.StatusUnprocessableEntity
	case apperrors.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v, refusing unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err).Error())
		return false
	}
	return true
}
