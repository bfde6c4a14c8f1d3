package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/internal/domain/model"
	"github.com/okian/hackathon/internal/domain/schedule"
	apperrors "github.com/okian/hackathon/internal/errors"
	"github.com/okian/hackathon/pkg/metrics"
)

// CreateTeam creates a team in hackathon title with founder as its first
// member. Team and membership are written in one transaction.
func (s *Service) CreateTeam(ctx context.Context, title, founder, name string, now time.Time) (t model.Team, err error) {
	name = strings.TrimSpace(name)
	ctx, done := s.operation(ctx, "create_team", true,
		attribute.String("hackathon", title), attribute.String("team", name), attribute.String("founder", founder))
	defer done(&err)

	if err := required("team", name); err != nil {
		return model.Team{}, err
	}
	now = at(now)

	err = s.update(ctx, "create_team", func(tx repository.Tx) error {
		h, err := getHackathon(tx, title)
		if err != nil {
			return err
		}
		if _, err := getUser(tx, founder); err != nil {
			return err
		}
		if err := registrationGate(h, now); err != nil {
			return err
		}
		switch _, err := getTeam(tx, title, name); {
		case err == nil:
			return apperrors.ErrDuplicateTeamName.WithMetadata("hackathon", title, "team", name)
		case !errors.Is(err, apperrors.ErrTeamNotFound):
			return err
		}
		if _, member, err := membership(tx, title, founder); err != nil {
			return err
		} else if member {
			return apperrors.ErrAlreadyMember.WithMetadata("hackathon", title, "user", founder)
		}

		t = model.Team{Hackathon: title, Name: name, Founder: founder, CreatedAt: now}
		if err := tx.InsertTeam(t); err != nil {
			return conflict(err, apperrors.ErrDuplicateTeamName, "hackathon", title, "team", name)
		}
		m := model.Membership{Hackathon: title, Team: name, User: founder, JoinedAt: now}
		if err := tx.InsertMembership(m); err != nil {
			return conflict(err, apperrors.ErrAlreadyMember, "hackathon", title, "user", founder)
		}
		h.CurrentParticipants++
		return tx.UpdateHackathon(h)
	})
	if err != nil {
		return model.Team{}, err
	}
	metrics.RecordParticipantJoined()
	return t, nil
}

// JoinTeam adds user to team. The roster and seat checks run in the same
// transaction as the insert.
func (s *Service) JoinTeam(ctx context.Context, title, team, user string, now time.Time) (m model.Membership, err error) {
	ctx, done := s.operation(ctx, "join_team", true,
		attribute.String("hackathon", title), attribute.String("team", team), attribute.String("user", user))
	defer done(&err)

	now = at(now)
	err = s.update(ctx, "join_team", func(tx repository.Tx) error {
		h, err := getHackathon(tx, title)
		if err != nil {
			return err
		}
		if _, err := getTeam(tx, title, team); err != nil {
			return err
		}
		if _, err := getUser(tx, user); err != nil {
			return err
		}
		if !schedule.IsRegistrationWindow(h, now) {
			return apperrors.ErrRegistrationClosed.WithMetadata("hackathon", title)
		}
		if existing, member, err := membership(tx, title, user); err != nil {
			return err
		} else if member {
			return apperrors.ErrAlreadyMember.WithMetadata("hackathon", title, "user", user, "team", existing.Team)
		}
		roster, err := tx.ListMembers(title, team)
		if err != nil {
			return err
		}
		if len(roster) >= h.MaxTeamSize {
			return apperrors.ErrTeamFull.WithMetadata("hackathon", title, "team", team,
				"max_team_size", strconv.Itoa(h.MaxTeamSize))
		}
		if err := registrationGate(h, now); err != nil {
			return err
		}

		m = model.Membership{Hackathon: title, Team: team, User: user, JoinedAt: now}
		if err := tx.InsertMembership(m); err != nil {
			return conflict(err, apperrors.ErrAlreadyMember, "hackathon", title, "user", user)
		}
		h.CurrentParticipants++
		return tx.UpdateHackathon(h)
	})
	if err != nil {
		return model.Membership{}, err
	}
	metrics.RecordParticipantJoined()
	return m, nil
}

// LeaveTeam removes user from team. It reports false, without error, when
// the user is not on that team. Founders stay with their team and nobody
// leaves once the event has started.
func (s *Service) LeaveTeam(ctx context.Context, title, team, user string, now time.Time) (left bool, err error) {
	ctx, done := s.operation(ctx, "leave_team", true,
		attribute.String("hackathon", title), attribute.String("team", team), attribute.String("user", user))
	defer done(&err)

	err = s.update(ctx, "leave_team", func(tx repository.Tx) error {
		h, err := getHackathon(tx, title)
		if err != nil {
			return err
		}
		t, err := getTeam(tx, title, team)
		if err != nil {
			return err
		}
		m, member, err := membership(tx, title, user)
		if err != nil {
			return err
		}
		if !member || m.Team != team {
			return nil
		}
		if t.Founder == user {
			return apperrors.ErrFounderCannotLeave.WithMetadata("hackathon", title, "team", team)
		}
		if schedule.HasStarted(h, now) {
			return apperrors.ErrEventStarted.WithMetadata("hackathon", title)
		}
		if err := tx.DeleteMembership(title, user); err != nil {
			return err
		}
		if h.CurrentParticipants > 0 {
			h.CurrentParticipants--
		}
		left = true
		return tx.UpdateHackathon(h)
	})
	if err != nil {
		return false, err
	}
	if left {
		metrics.RecordParticipantLeft()
	}
	return left, nil
}

// Members lists the roster of team in join order.
func (s *Service) Members(ctx context.Context, title, team string) (ms []model.Membership, err error) {
	ctx, done := s.operation(ctx, "list_members", false,
		attribute.String("hackathon", title), attribute.String("team", team))
	defer done(&err)

	err = s.view(ctx, "list_members", func(tx repository.Tx) error {
		if _, err := getTeam(tx, title, team); err != nil {
			return err
		}
		ms, err = tx.ListMembers(title, team)
		return err
	})
	return ms, err
}

// TeamOf returns the team user belongs to in hackathon title. ok is false
// when the user is on no team.
func (s *Service) TeamOf(ctx context.Context, title, user string) (t model.Team, ok bool, err error) {
	ctx, done := s.operation(ctx, "team_of", false,
		attribute.String("hackathon", title), attribute.String("user", user))
	defer done(&err)

	err = s.view(ctx, "team_of", func(tx repository.Tx) error {
		if _, err := getHackathon(tx, title); err != nil {
			return err
		}
		m, member, err := membership(tx, title, user)
		if err != nil || !member {
			return err
		}
		t, err = getTeam(tx, title, m.Team)
		ok = err == nil
		return err
	})
	return t, ok, err
}

// Teams lists the teams of hackathon title in creation order.
func (s *Service) Teams(ctx context.Context, title string) (ts []model.Team, err error) {
	ctx, done := s.operation(ctx, "list_teams", false, attribute.String("hackathon", title))
	defer done(&err)

	err = s.view(ctx, "list_teams", func(tx repository.Tx) error {
		if _, err := getHackathon(tx, title); err != nil {
			return err
		}
		ts, err = tx.ListTeams(title)
		return err
	})
	return ts, err
}

// Team returns one team.
func (s *Service) Team(ctx context.Context, title, name string) (t model.Team, err error) {
	ctx, done := s.operation(ctx, "get_team", false,
		attribute.String("hackathon", title), attribute.String("team", name))
	defer done(&err)

	err = s.view(ctx, "get_team", func(tx repository.Tx) error {
		t, err = getTeam(tx, title, name)
		return err
	})
	return t, err
}
