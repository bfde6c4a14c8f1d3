package gormstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/hackathon/internal/domain/model"
)

// Row types carry the unique indexes that turn a lost race into
// ErrAlreadyExists. Autoincrement ids give insertion order to lists.

type userRow struct {
	ID           uint      `gorm:"primaryKey"`
	Name         string    `gorm:"size:128;not null;uniqueIndex"`
	PasswordHash []byte    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

type hackathonRow struct {
	ID                  uint      `gorm:"primaryKey"`
	Title               string    `gorm:"size:256;not null;uniqueIndex"`
	Organizer           string    `gorm:"size:128;not null;index"`
	Venue               string    `gorm:"size:256"`
	RegistrationStart   time.Time `gorm:"not null"`
	RegistrationEnd     time.Time `gorm:"not null"`
	EventStart          time.Time `gorm:"not null"`
	EventEnd            time.Time `gorm:"not null"`
	MaxParticipants     int       `gorm:"not null"`
	MaxTeamSize         int       `gorm:"not null"`
	CurrentParticipants int       `gorm:"not null;default:0"`
	ProblemStatement    string    `gorm:"type:text"`
	Ranking             string    `gorm:"type:text"`
	RankedAt            *time.Time
	CreatedAt           time.Time `gorm:"not null"`
}

func (hackathonRow) TableName() string { return "hackathons" }

type teamRow struct {
	ID         uint      `gorm:"primaryKey"`
	Hackathon  string    `gorm:"size:256;not null;uniqueIndex:idx_team_name,priority:1"`
	Name       string    `gorm:"size:128;not null;uniqueIndex:idx_team_name,priority:2"`
	Founder    string    `gorm:"size:128;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	VoteCount  int       `gorm:"not null;default:0"`
	ScoreTotal int       `gorm:"not null;default:0"`
	FinalScore *float64
}

func (teamRow) TableName() string { return "teams" }

type membershipRow struct {
	ID        uint      `gorm:"primaryKey"`
	Hackathon string    `gorm:"size:256;not null;uniqueIndex:idx_membership_user,priority:1;index:idx_membership_team,priority:1"`
	User      string    `gorm:"column:user_name;size:128;not null;uniqueIndex:idx_membership_user,priority:2;index"`
	Team      string    `gorm:"size:128;not null;index:idx_membership_team,priority:2"`
	JoinedAt  time.Time `gorm:"not null"`
}

func (membershipRow) TableName() string { return "memberships" }

type documentRow struct {
	Seq       uint      `gorm:"primaryKey"`
	ID        string    `gorm:"size:64;not null;uniqueIndex"`
	Hackathon string    `gorm:"size:256;not null;index:idx_document_team,priority:1"`
	Team      string    `gorm:"size:128;not null;index:idx_document_team,priority:2"`
	Title     string    `gorm:"size:512;not null"`
	Body      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

func (documentRow) TableName() string { return "documents" }

type invitationRow struct {
	Seq         uint      `gorm:"primaryKey"`
	ID          string    `gorm:"size:64;not null;uniqueIndex"`
	Hackathon   string    `gorm:"size:256;not null;uniqueIndex:idx_invitation_pair,priority:1"`
	Invitee     string    `gorm:"size:128;not null;uniqueIndex:idx_invitation_pair,priority:2;index"`
	Organizer   string    `gorm:"size:128;not null"`
	Status      string    `gorm:"size:16;not null"`
	SentAt      time.Time `gorm:"not null"`
	RespondedAt *time.Time
}

func (invitationRow) TableName() string { return "invitations" }

type voteRow struct {
	Seq       uint      `gorm:"primaryKey"`
	ID        string    `gorm:"size:64;not null;uniqueIndex"`
	Hackathon string    `gorm:"size:256;not null;uniqueIndex:idx_vote_pair,priority:1"`
	Team      string    `gorm:"size:128;not null;uniqueIndex:idx_vote_pair,priority:2"`
	Judge     string    `gorm:"size:128;not null;uniqueIndex:idx_vote_pair,priority:3"`
	Score     int       `gorm:"not null"`
	CastAt    time.Time `gorm:"not null"`
}

func (voteRow) TableName() string { return "votes" }

type evaluationRow struct {
	Seq        uint      `gorm:"primaryKey"`
	ID         string    `gorm:"size:64;not null;uniqueIndex"`
	DocumentID string    `gorm:"size:64;not null;uniqueIndex:idx_evaluation_pair,priority:1"`
	Judge      string    `gorm:"size:128;not null;uniqueIndex:idx_evaluation_pair,priority:2"`
	Hackathon  string    `gorm:"size:256;not null"`
	Team       string    `gorm:"size:128;not null"`
	Text       string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (evaluationRow) TableName() string { return "evaluations" }

func allRows() []any {
	return []any{
		&userRow{},
		&hackathonRow{},
		&teamRow{},
		&membershipRow{},
		&documentRow{},
		&invitationRow{},
		&voteRow{},
		&evaluationRow{},
	}
}

func fromUser(u model.User) userRow {
	return userRow{Name: u.Name, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt}
}

func (r userRow) model() model.User {
	return model.User{Name: r.Name, PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt}
}

func encodeRanking(entries []model.RankingEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode ranking: %w", err)
	}
	return string(b), nil
}

func fromHackathon(h model.Hackathon) (hackathonRow, error) {
	ranking, err := encodeRanking(h.Ranking)
	if err != nil {
		return hackathonRow{}, err
	}
	return hackathonRow{
		Title:               h.Title,
		Organizer:           h.Organizer,
		Venue:               h.Venue,
		RegistrationStart:   h.RegistrationStart,
		RegistrationEnd:     h.RegistrationEnd,
		EventStart:          h.EventStart,
		EventEnd:            h.EventEnd,
		MaxParticipants:     h.MaxParticipants,
		MaxTeamSize:         h.MaxTeamSize,
		CurrentParticipants: h.CurrentParticipants,
		ProblemStatement:    h.ProblemStatement,
		Ranking:             ranking,
		RankedAt:            h.RankedAt,
		CreatedAt:           h.CreatedAt,
	}, nil
}

func (r hackathonRow) model() (model.Hackathon, error) {
	h := model.Hackathon{
		Title:               r.Title,
		Organizer:           r.Organizer,
		Venue:               r.Venue,
		RegistrationStart:   r.RegistrationStart,
		RegistrationEnd:     r.RegistrationEnd,
		EventStart:          r.EventStart,
		EventEnd:            r.EventEnd,
		MaxParticipants:     r.MaxParticipants,
		MaxTeamSize:         r.MaxTeamSize,
		CurrentParticipants: r.CurrentParticipants,
		ProblemStatement:    r.ProblemStatement,
		RankedAt:            r.RankedAt,
		CreatedAt:           r.CreatedAt,
	}
	if r.Ranking != "" {
		if err := json.Unmarshal([]byte(r.Ranking), &h.Ranking); err != nil {
			return model.Hackathon{}, fmt.Errorf("decode ranking of %q: %w", r.Title, err)
		}
	}
	if h.Ranked() && h.Ranking == nil {
		h.Ranking = []model.RankingEntry{}
	}
	return h, nil
}

func fromTeam(t model.Team) teamRow {
	return teamRow{
		Hackathon:  t.Hackathon,
		Name:       t.Name,
		Founder:    t.Founder,
		CreatedAt:  t.CreatedAt,
		VoteCount:  t.VoteCount,
		ScoreTotal: t.ScoreTotal,
		FinalScore: t.FinalScore,
	}
}

func (r teamRow) model() model.Team {
	return model.Team{
		Hackathon:  r.Hackathon,
		Name:       r.Name,
		Founder:    r.Founder,
		CreatedAt:  r.CreatedAt,
		VoteCount:  r.VoteCount,
		ScoreTotal: r.ScoreTotal,
		FinalScore: r.FinalScore,
	}
}

func (r membershipRow) model() model.Membership {
	return model.Membership{Hackathon: r.Hackathon, Team: r.Team, User: r.User, JoinedAt: r.JoinedAt}
}

func (r documentRow) model() model.Document {
	return model.Document{ID: r.ID, Hackathon: r.Hackathon, Team: r.Team, Title: r.Title, Body: r.Body, CreatedAt: r.CreatedAt}
}

func fromInvitation(i model.Invitation) invitationRow {
	return invitationRow{
		ID:          i.ID,
		Hackathon:   i.Hackathon,
		Invitee:     i.Invitee,
		Organizer:   i.Organizer,
		Status:      string(i.Status),
		SentAt:      i.SentAt,
		RespondedAt: i.RespondedAt,
	}
}

func (r invitationRow) model() model.Invitation {
	return model.Invitation{
		ID:          r.ID,
		Hackathon:   r.Hackathon,
		Organizer:   r.Organizer,
		Invitee:     r.Invitee,
		Status:      model.InvitationStatus(r.Status),
		SentAt:      r.SentAt,
		RespondedAt: r.RespondedAt,
	}
}

func (r voteRow) model() model.Vote {
	return model.Vote{ID: r.ID, Hackathon: r.Hackathon, Team: r.Team, Judge: r.Judge, Score: r.Score, CastAt: r.CastAt}
}

func (r evaluationRow) model() model.Evaluation {
	return model.Evaluation{
		ID:         r.ID,
		DocumentID: r.DocumentID,
		Hackathon:  r.Hackathon,
		Team:       r.Team,
		Judge:      r.Judge,
		Text:       r.Text,
		CreatedAt:  r.CreatedAt,
	}
}
