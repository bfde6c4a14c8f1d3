// Package model contains domain models passed between layers.
package model

import "time"

// User is a registered account. Roles are not stored on the user; they are
// derived per hackathon (see Capability).
type User struct {
	Name         string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Role is a capability a user holds for one hackathon.
type Role string

const (
	RoleOrganizer   Role = "organizer"
	RoleParticipant Role = "participant"
	RoleJudge       Role = "judge"
)

// Capability binds a role to a hackathon.
type Capability struct {
	Hackathon string `json:"hackathon"`
	Role      Role   `json:"role"`
}

// Hackathon is a scheduled event with a registration window [start, end)
// and an event window [start, end].
type Hackathon struct {
	Title               string
	Organizer           string
	Venue               string
	RegistrationStart   time.Time
	RegistrationEnd     time.Time
	EventStart          time.Time
	EventEnd            time.Time
	MaxParticipants     int
	MaxTeamSize         int
	CurrentParticipants int
	ProblemStatement    string
	Ranking             []RankingEntry
	RankedAt            *time.Time
	CreatedAt           time.Time
}

// Ranked reports whether a final ranking has been stored.
func (h Hackathon) Ranked() bool { return h.RankedAt != nil }

// Team is a named group competing in one hackathon. VoteCount and
// ScoreTotal accumulate as judges vote.
type Team struct {
	Hackathon  string
	Name       string
	Founder    string
	CreatedAt  time.Time
	VoteCount  int
	ScoreTotal int
	FinalScore *float64
}

// Membership binds a user to a team for a hackathon.
type Membership struct {
	Hackathon string
	Team      string
	User      string
	JoinedAt  time.Time
}

// Document is an immutable team submission.
type Document struct {
	ID        string
	Hackathon string
	Team      string
	Title     string
	Body      string
	CreatedAt time.Time
}

// InvitationStatus is the lifecycle state of a judging invitation.
type InvitationStatus string

const (
	InvitationSent     InvitationStatus = "sent"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// Terminal reports whether no further transition is allowed.
func (s InvitationStatus) Terminal() bool {
	return s == InvitationAccepted || s == InvitationDeclined
}

// Invitation is an organizer's request for a user to judge a hackathon.
type Invitation struct {
	ID          string
	Hackathon   string
	Organizer   string
	Invitee     string
	Status      InvitationStatus
	SentAt      time.Time
	RespondedAt *time.Time
}

// Vote is a judge's numeric score for a team.
type Vote struct {
	ID        string
	Hackathon string
	Team      string
	Judge     string
	Score     int
	CastAt    time.Time
}

// Evaluation is a judge's free-text commentary on a document.
type Evaluation struct {
	ID         string
	DocumentID string
	Hackathon  string
	Team       string
	Judge      string
	Text       string
	CreatedAt  time.Time
}

// RankingEntry is one row of a final ranking.
type RankingEntry struct {
	Rank      int     `json:"rank"`
	Team      string  `json:"team"`
	MeanScore float64 `json:"mean_score"`
	Votes     int     `json:"votes"`
}

// Stage is the lifecycle position of a hackathon at a point in time.
type Stage string

const (
	StageScheduled          Stage = "scheduled"
	StageRegistrationOpen   Stage = "registration_open"
	StageRegistrationClosed Stage = "registration_closed"
	StageInProgress         Stage = "in_progress"
	StageConcluded          Stage = "concluded"
	StageRanked             Stage = "ranked"
)
