package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/internal/domain/model"
	"github.com/okian/hackathon/internal/domain/schedule"
	apperrors "github.com/okian/hackathon/internal/errors"
)

// HackathonInput is what an organizer supplies to schedule a hackathon. A
// zero RegistrationStart opens registration at creation time; a zero
// RegistrationEnd closes it one registration gap before the event.
type HackathonInput struct {
	Title             string
	Organizer         string
	Venue             string
	RegistrationStart time.Time
	RegistrationEnd   time.Time
	EventStart        time.Time
	EventEnd          time.Time
	MaxParticipants   int
	MaxTeamSize       int
	ProblemStatement  string
}

func (in HackathonInput) validate() error {
	if err := required("title", in.Title); err != nil {
		return err
	}
	if err := required("organizer", in.Organizer); err != nil {
		return err
	}
	if err := required("venue", in.Venue); err != nil {
		return err
	}
	if in.MaxParticipants < 1 {
		return apperrors.ErrInvalidInput.WithMetadata("field", "max_participants", "reason", "must be at least 1")
	}
	if in.MaxTeamSize < 1 || in.MaxTeamSize > in.MaxParticipants {
		return apperrors.ErrInvalidInput.WithMetadata("field", "max_team_size",
			"reason", "must be between 1 and "+strconv.Itoa(in.MaxParticipants))
	}
	return nil
}

// CreateHackathon validates the schedule and stores a new hackathon.
func (s *Service) CreateHackathon(ctx context.Context, in HackathonInput, now time.Time) (h model.Hackathon, err error) {
	in.Title = strings.TrimSpace(in.Title)
	ctx, done := s.operation(ctx, "create_hackathon", true,
		attribute.String("hackathon", in.Title), attribute.String("organizer", in.Organizer))
	defer done(&err)

	if err := in.validate(); err != nil {
		return model.Hackathon{}, err
	}
	now = at(now)
	if in.RegistrationStart.IsZero() {
		in.RegistrationStart = now
	}
	plan, err := schedule.Plan{
		RegistrationStart: at(in.RegistrationStart),
		RegistrationEnd:   normalizeOptional(in.RegistrationEnd),
		EventStart:        normalizeOptional(in.EventStart),
		EventEnd:          normalizeOptional(in.EventEnd),
	}.Normalize(s.registrationGap)
	if err != nil {
		return model.Hackathon{}, err
	}

	h = model.Hackathon{
		Title:             in.Title,
		Organizer:         in.Organizer,
		Venue:             strings.TrimSpace(in.Venue),
		RegistrationStart: plan.RegistrationStart,
		RegistrationEnd:   plan.RegistrationEnd,
		EventStart:        plan.EventStart,
		EventEnd:          plan.EventEnd,
		MaxParticipants:   in.MaxParticipants,
		MaxTeamSize:       in.MaxTeamSize,
		ProblemStatement:  in.ProblemStatement,
		CreatedAt:         now,
	}
	err = s.update(ctx, "create_hackathon", func(tx repository.Tx) error {
		if _, err := getUser(tx, in.Organizer); err != nil {
			return err
		}
		return conflict(tx.InsertHackathon(h), apperrors.ErrDuplicateTitle, "hackathon", h.Title)
	})
	if err != nil {
		return model.Hackathon{}, err
	}
	return h, nil
}

func normalizeOptional(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return at(t)
}

// SetProblemStatement replaces the problem statement. Only the organizer or
// an accepted judge may do so, and not once the hackathon is ranked.
func (s *Service) SetProblemStatement(ctx context.Context, actor, title, text string) (err error) {
	ctx, done := s.operation(ctx, "set_problem_statement", true,
		attribute.String("hackathon", title), attribute.String("actor", actor))
	defer done(&err)

	return s.update(ctx, "set_problem_statement", func(tx repository.Tx) error {
		h, err := getHackathon(tx, title)
		if err != nil {
			return err
		}
		if h.Organizer != actor {
			judge, err := isAcceptedJudge(tx, title, actor)
			if err != nil {
				return err
			}
			if !judge {
				return apperrors.ErrNotAuthorized.WithMetadata("hackathon", title, "actor", actor)
			}
		}
		if h.Ranked() {
			return apperrors.ErrRankingFinalized.WithMetadata("hackathon", title)
		}
		h.ProblemStatement = text
		return tx.UpdateHackathon(h)
	})
}

// Hackathon returns the hackathon with title.
func (s *Service) Hackathon(ctx context.Context, title string) (h model.Hackathon, err error) {
	ctx, done := s.operation(ctx, "get_hackathon", false, attribute.String("hackathon", title))
	defer done(&err)

	err = s.view(ctx, "get_hackathon", func(tx repository.Tx) error {
		h, err = getHackathon(tx, title)
		return err
	})
	return h, err
}

// Hackathons lists every hackathon in creation order.
func (s *Service) Hackathons(ctx context.Context) (hs []model.Hackathon, err error) {
	ctx, done := s.operation(ctx, "list_hackathons", false)
	defer done(&err)

	err = s.view(ctx, "list_hackathons", func(tx repository.Tx) error {
		hs, err = tx.ListHackathons()
		return err
	})
	return hs, err
}

// Stage places the hackathon in its lifecycle at now.
func (s *Service) Stage(ctx context.Context, title string, now time.Time) (model.Stage, error) {
	h, err := s.Hackathon(ctx, title)
	if err != nil {
		return "", err
	}
	return schedule.StageAt(h, now), nil
}

// IsRegistrationOpen reports whether the registration window is open at now
// and participant seats remain.
func (s *Service) IsRegistrationOpen(ctx context.Context, title string, now time.Time) (bool, error) {
	h, err := s.Hackathon(ctx, title)
	if err != nil {
		return false, err
	}
	return schedule.IsRegistrationOpen(h, now), nil
}

// IsEventConcluded reports whether now is past the event end.
func (s *Service) IsEventConcluded(ctx context.Context, title string, now time.Time) (bool, error) {
	h, err := s.Hackathon(ctx, title)
	if err != nil {
		return false, err
	}
	return schedule.IsEventConcluded(h, now), nil
}

// registrationGate checks the registration window and the hackathon seat
// cap for one more participant.
func registrationGate(h model.Hackathon, now time.Time) error {
	if !schedule.IsRegistrationWindow(h, now) {
		return apperrors.ErrRegistrationClosed.WithMetadata("hackathon", h.Title)
	}
	if h.CurrentParticipants >= h.MaxParticipants {
		return apperrors.ErrHackathonFull.WithMetadata("hackathon", h.Title,
			"max_participants", strconv.Itoa(h.MaxParticipants))
	}
	return nil
}
