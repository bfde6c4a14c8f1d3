package api

import (
	"time"

	"github.com/okian/hackathon/internal/domain/model"
	"github.com/okian/hackathon/internal/domain/schedule"
)

// Wire shapes. Password hashes never leave the service.

type userView struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type tokenView struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type hackathonView struct {
	Title               string               `json:"title"`
	Organizer           string               `json:"organizer"`
	Venue               string               `json:"venue"`
	Stage               model.Stage          `json:"stage"`
	RegistrationStart   time.Time            `json:"registration_start"`
	RegistrationEnd     time.Time            `json:"registration_end"`
	EventStart          time.Time            `json:"event_start"`
	EventEnd            time.Time            `json:"event_end"`
	MaxParticipants     int                  `json:"max_participants"`
	MaxTeamSize         int                  `json:"max_team_size"`
	CurrentParticipants int                  `json:"current_participants"`
	ProblemStatement    string               `json:"problem_statement,omitempty"`
	Ranking             []model.RankingEntry `json:"ranking,omitempty"`
	RankedAt            *time.Time           `json:"ranked_at,omitempty"`
}

func hackathonOf(h model.Hackathon, now time.Time) hackathonView {
	return hackathonView{
		Title:               h.Title,
		Organizer:           h.Organizer,
		Venue:               h.Venue,
		Stage:               schedule.StageAt(h, now),
		RegistrationStart:   h.RegistrationStart,
		RegistrationEnd:     h.RegistrationEnd,
		EventStart:          h.EventStart,
		EventEnd:            h.EventEnd,
		MaxParticipants:     h.MaxParticipants,
		MaxTeamSize:         h.MaxTeamSize,
		CurrentParticipants: h.CurrentParticipants,
		ProblemStatement:    h.ProblemStatement,
		Ranking:             h.Ranking,
		RankedAt:            h.RankedAt,
	}
}

type teamView struct {
	Name       string    `json:"name"`
	Founder    string    `json:"founder"`
	CreatedAt  time.Time `json:"created_at"`
	VoteCount  int       `json:"vote_count"`
	FinalScore *float64  `json:"final_score,omitempty"`
}

func teamOf(t model.Team) teamView {
	return teamView{Name: t.Name, Founder: t.Founder, CreatedAt: t.CreatedAt, VoteCount: t.VoteCount, FinalScore: t.FinalScore}
}

type memberView struct {
	User     string    `json:"user"`
	Team     string    `json:"team"`
	JoinedAt time.Time `json:"joined_at"`
}

func memberOf(m model.Membership) memberView {
	return memberView{User: m.User, Team: m.Team, JoinedAt: m.JoinedAt}
}

type documentView struct {
	ID        string    `json:"id"`
	Team      string    `json:"team"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func documentOf(d model.Document) documentView {
	return documentView{ID: d.ID, Team: d.Team, Title: d.Title, Body: d.Body, CreatedAt: d.CreatedAt}
}

type invitationView struct {
	ID          string                 `json:"id"`
	Hackathon   string                 `json:"hackathon"`
	Invitee     string                 `json:"invitee"`
	Status      model.InvitationStatus `json:"status"`
	SentAt      time.Time              `json:"sent_at"`
	RespondedAt *time.Time             `json:"responded_at,omitempty"`
}

func invitationOf(i model.Invitation) invitationView {
	return invitationView{
		ID:          i.ID,
		Hackathon:   i.Hackathon,
		Invitee:     i.Invitee,
		Status:      i.Status,
		SentAt:      i.SentAt,
		RespondedAt: i.RespondedAt,
	}
}

type voteView struct {
	ID     string    `json:"id"`
	Team   string    `json:"team"`
	Judge  string    `json:"judge"`
	Score  int       `json:"score"`
	CastAt time.Time `json:"cast_at"`
}

type evaluationView struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Judge      string    `json:"judge"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

func evaluationOf(e model.Evaluation) evaluationView {
	return evaluationView{ID: e.ID, DocumentID: e.DocumentID, Judge: e.Judge, Text: e.Text, CreatedAt: e.CreatedAt}
}

func mapSlice[T, V any](in []T, f func(T) V) []V {
	out := make([]V, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
