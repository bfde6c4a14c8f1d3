package service

import (
	"errors"
	"slices"
	"strings"

	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/internal/domain/model"
	apperrors "github.com/okian/hackathon/internal/errors"
)

// Lookups translate gateway misses into the domain's not-found errors.

func getUser(tx repository.Tx, name string) (model.User, error) {
	u, err := tx.GetUser(name)
	if errors.Is(err, repository.ErrNotFound) {
		return u, apperrors.ErrUserNotFound.WithMetadata("user", name)
	}
	return u, err
}

func getHackathon(tx repository.Tx, title string) (model.Hackathon, error) {
	h, err := tx.GetHackathon(title)
	if errors.Is(err, repository.ErrNotFound) {
		return h, apperrors.ErrHackathonNotFound.WithMetadata("hackathon", title)
	}
	return h, err
}

func getTeam(tx repository.Tx, hackathon, name string) (model.Team, error) {
	t, err := tx.GetTeam(hackathon, name)
	if errors.Is(err, repository.ErrNotFound) {
		return t, apperrors.ErrTeamNotFound.WithMetadata("hackathon", hackathon, "team", name)
	}
	return t, err
}

func getDocument(tx repository.Tx, id string) (model.Document, error) {
	d, err := tx.GetDocument(id)
	if errors.Is(err, repository.ErrNotFound) {
		return d, apperrors.ErrDocumentNotFound.WithMetadata("document", id)
	}
	return d, err
}

func getInvitation(tx repository.Tx, hackathon, invitee string) (model.Invitation, error) {
	i, err := tx.GetInvitation(hackathon, invitee)
	if errors.Is(err, repository.ErrNotFound) {
		return i, apperrors.ErrInvitationNotFound.WithMetadata("hackathon", hackathon, "invitee", invitee)
	}
	return i, err
}

// membership returns the user's membership in hackathon, if any.
func membership(tx repository.Tx, hackathon, user string) (model.Membership, bool, error) {
	m, err := tx.GetMembership(hackathon, user)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.Membership{}, false, nil
	case err != nil:
		return model.Membership{}, false, err
	}
	return m, true, nil
}

// conflict maps a gateway uniqueness violation onto sentinel.
func conflict(err error, sentinel *apperrors.Error, kv ...string) error {
	if errors.Is(err, repository.ErrAlreadyExists) {
		return sentinel.WithMetadata(kv...)
	}
	return err
}

// acceptedJudges returns the accepted judges of hackathon in the order they
// accepted.
func acceptedJudges(tx repository.Tx, hackathon string) ([]string, error) {
	invs, err := tx.ListInvitations(hackathon)
	if err != nil {
		return nil, err
	}
	accepted := slices.DeleteFunc(invs, func(i model.Invitation) bool {
		return i.Status != model.InvitationAccepted || i.RespondedAt == nil
	})
	slices.SortStableFunc(accepted, func(a, b model.Invitation) int {
		return a.RespondedAt.Compare(*b.RespondedAt)
	})
	judges := make([]string, len(accepted))
	for i, inv := range accepted {
		judges[i] = inv.Invitee
	}
	return judges, nil
}

// isAcceptedJudge reports whether user holds an accepted invitation.
func isAcceptedJudge(tx repository.Tx, hackathon, user string) (bool, error) {
	inv, err := tx.GetInvitation(hackathon, user)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return inv.Status == model.InvitationAccepted, nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.ErrInvalidInput.WithMetadata("field", field, "reason", "required")
	}
	return nil
}
