package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/internal/domain/model"
	"github.com/okian/hackathon/internal/domain/schedule"
	apperrors "github.com/okian/hackathon/internal/errors"
	"github.com/okian/hackathon/pkg/metrics"
)

// Invite asks invitee to judge hackathon title. Only the organizer may
// invite and there is one invitation per (hackathon, invitee); a declined
// one is re-sent only when the service allows it.
func (s *Service) Invite(ctx context.Context, organizer, invitee, title string, now time.Time) (inv model.Invitation, err error) {
	ctx, done := s.operation(ctx, "invite_judge", true,
		attribute.String("hackathon", title), attribute.String("organizer", organizer), attribute.String("invitee", invitee))
	defer done(&err)

	now = at(now)
	err = s.update(ctx, "invite_judge", func(tx repository.Tx) error {
		h, err := getHackathon(tx, title)
		if err != nil {
			return err
		}
		if h.Organizer != organizer {
			return apperrors.ErrNotOrganizer.WithMetadata("hackathon", title, "user", organizer)
		}
		if _, err := getUser(tx, invitee); err != nil {
			return err
		}
		if schedule.IsEventConcluded(h, now) {
			return apperrors.ErrEventConcluded.WithMetadata("hackathon", title)
		}

		existing, err := tx.GetInvitation(title, invitee)
		if err == nil {
			if existing.Status != model.InvitationDeclined || !s.allowReinviteDeclined {
				return apperrors.ErrDuplicateInvitation.WithMetadata("hackathon", title, "invitee", invitee,
					"status", string(existing.Status))
			}
			existing.Status = model.InvitationSent
			existing.Organizer = organizer
			existing.SentAt = now
			existing.RespondedAt = nil
			inv = existing
			return tx.UpdateInvitation(inv)
		}

		inv = model.Invitation{
			ID:        s.newID(),
			Hackathon: title,
			Organizer: organizer,
			Invitee:   invitee,
			Status:    model.InvitationSent,
			SentAt:    now,
		}
		return conflict(tx.InsertInvitation(inv), apperrors.ErrDuplicateInvitation, "hackathon", title, "invitee", invitee)
	})
	if err != nil {
		return model.Invitation{}, err
	}
	metrics.RecordInvitation(string(model.InvitationSent))
	return inv, nil
}

// Accept turns invitee's pending invitation into a judging commitment. It
// fails when the event window overlaps any hackathon the invitee already
// judges; windows that only touch do not overlap.
func (s *Service) Accept(ctx context.Context, invitee, title string, now time.Time) (inv model.Invitation, err error) {
	ctx, done := s.operation(ctx, "accept_invitation", true,
		attribute.String("hackathon", title), attribute.String("invitee", invitee))
	defer done(&err)

	now = at(now)
	err = s.update(ctx, "accept_invitation", func(tx repository.Tx) error {
		h, err := getHackathon(tx, title)
		if err != nil {
			return err
		}
		// Reading the invitee first locks the row, serializing concurrent
		// accepts by the same judge.
		if _, err := getUser(tx, invitee); err != nil {
			return err
		}
		inv, err = pendingInvitation(tx, title, invitee)
		if err != nil {
			return err
		}
		if schedule.IsEventConcluded(h, now) {
			return apperrors.ErrEventConcluded.WithMetadata("hackathon", title)
		}

		commitments, err := tx.ListInvitationsByInvitee(invitee)
		if err != nil {
			return err
		}
		window := schedule.EventWindow(h)
		for _, c := range commitments {
			if c.Status != model.InvitationAccepted || c.Hackathon == title {
				continue
			}
			other, err := getHackathon(tx, c.Hackathon)
			if err != nil {
				return err
			}
			if window.Overlaps(schedule.EventWindow(other)) {
				return apperrors.ErrScheduleConflict.WithMetadata("hackathon", title, "judge", invitee,
					"conflicts_with", other.Title)
			}
		}

		inv.Status = model.InvitationAccepted
		inv.RespondedAt = &now
		return tx.UpdateInvitation(inv)
	})
	if err != nil {
		return model.Invitation{}, err
	}
	metrics.RecordInvitation(string(model.InvitationAccepted))
	return inv, nil
}

// Decline closes invitee's pending invitation.
func (s *Service) Decline(ctx context.Context, invitee, title string, now time.Time) (inv model.Invitation, err error) {
	ctx, done := s.operation(ctx, "decline_invitation", true,
		attribute.String("hackathon", title), attribute.String("invitee", invitee))
	defer done(&err)

	now = at(now)
	err = s.update(ctx, "decline_invitation", func(tx repository.Tx) error {
		if _, err := getHackathon(tx, title); err != nil {
			return err
		}
		inv, err = pendingInvitation(tx, title, invitee)
		if err != nil {
			return err
		}
		inv.Status = model.InvitationDeclined
		inv.RespondedAt = &now
		return tx.UpdateInvitation(inv)
	})
	if err != nil {
		return model.Invitation{}, err
	}
	metrics.RecordInvitation(string(model.InvitationDeclined))
	return inv, nil
}

func pendingInvitation(tx repository.Tx, title, invitee string) (model.Invitation, error) {
	inv, err := getInvitation(tx, title, invitee)
	if err != nil {
		return model.Invitation{}, err
	}
	if inv.Status.Terminal() {
		return model.Invitation{}, apperrors.ErrInvitationResponded.WithMetadata("hackathon", title,
			"invitee", invitee, "status", string(inv.Status))
	}
	return inv, nil
}

// Invitations lists every invitation of hackathon title in sending order.
func (s *Service) Invitations(ctx context.Context, title string) (invs []model.Invitation, err error) {
	ctx, done := s.operation(ctx, "list_invitations", false, attribute.String("hackathon", title))
	defer done(&err)

	err = s.view(ctx, "list_invitations", func(tx repository.Tx) error {
		if _, err := getHackathon(tx, title); err != nil {
			return err
		}
		invs, err = tx.ListInvitations(title)
		return err
	})
	return invs, err
}

// InvitationsFor lists the invitations addressed to user.
func (s *Service) InvitationsFor(ctx context.Context, user string) (invs []model.Invitation, err error) {
	ctx, done := s.operation(ctx, "list_user_invitations", false, attribute.String("user", user))
	defer done(&err)

	err = s.view(ctx, "list_user_invitations", func(tx repository.Tx) error {
		if _, err := getUser(tx, user); err != nil {
			return err
		}
		invs, err = tx.ListInvitationsByInvitee(user)
		return err
	})
	return invs, err
}

// Judges lists the accepted judges of hackathon title in acceptance order.
func (s *Service) Judges(ctx context.Context, title string) (judges []string, err error) {
	ctx, done := s.operation(ctx, "list_judges", false, attribute.String("hackathon", title))
	defer done(&err)

	err = s.view(ctx, "list_judges", func(tx repository.Tx) error {
		if _, err := getHackathon(tx, title); err != nil {
			return err
		}
		judges, err = acceptedJudges(tx, title)
		return err
	})
	return judges, err
}
