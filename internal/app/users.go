package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/internal/domain/model"
	apperrors "github.com/okian/hackathon/internal/errors"
)

// Password bounds. bcrypt ignores everything past 72 bytes, so longer
// passwords are refused rather than silently truncated.
const (
	minPasswordLength = 8
	maxPasswordBytes  = 72
)

// RegisterUser creates an account with a bcrypt-hashed password.
func (s *Service) RegisterUser(ctx context.Context, name, password string) (u model.User, err error) {
	name = strings.TrimSpace(name)
	ctx, done := s.operation(ctx, "register_user", true, attribute.String("user", name))
	defer done(&err)

	if err := required("name", name); err != nil {
		return model.User{}, err
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return model.User{}, apperrors.ErrInvalidInput.WithMetadata("field", "password", "reason", "too short")
	}
	if len(password) > maxPasswordBytes {
		return model.User{}, apperrors.ErrInvalidInput.WithMetadata("field", "password", "reason", "too long")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return model.User{}, apperrors.ErrInvalidInput.WithMetadata("field", "password").Wrap(err)
	}
	u = model.User{Name: name, PasswordHash: hash, CreatedAt: at(s.clock())}

	err = s.update(ctx, "register_user", func(tx repository.Tx) error {
		return conflict(tx.InsertUser(u), apperrors.ErrDuplicateUser, "user", name)
	})
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Authenticate checks name and password. Unknown users and wrong passwords
// fail the same way.
func (s *Service) Authenticate(ctx context.Context, name, password string) (u model.User, err error) {
	ctx, done := s.operation(ctx, "authenticate", false, attribute.String("user", name))
	defer done(&err)

	err = s.view(ctx, "authenticate", func(tx repository.Tx) error {
		u, err = tx.GetUser(name)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrInvalidCredentials.WithMetadata("user", name)
		}
		return err
	})
	if err != nil {
		return model.User{}, err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return model.User{}, apperrors.ErrInvalidCredentials.WithMetadata("user", name)
	}
	return u, nil
}

// User returns an account by name.
func (s *Service) User(ctx context.Context, name string) (u model.User, err error) {
	ctx, done := s.operation(ctx, "get_user", false, attribute.String("user", name))
	defer done(&err)

	err = s.view(ctx, "get_user", func(tx repository.Tx) error {
		u, err = getUser(tx, name)
		return err
	})
	return u, err
}

// Capabilities lists the roles user holds: organizer of the hackathons they
// created, participant where they are on a team, judge where they accepted.
func (s *Service) Capabilities(ctx context.Context, name string) (caps []model.Capability, err error) {
	ctx, done := s.operation(ctx, "capabilities", false, attribute.String("user", name))
	defer done(&err)

	err = s.view(ctx, "capabilities", func(tx repository.Tx) error {
		if _, err := getUser(tx, name); err != nil {
			return err
		}
		organized, err := tx.ListHackathonsByOrganizer(name)
		if err != nil {
			return err
		}
		for _, h := range organized {
			caps = append(caps, model.Capability{Hackathon: h.Title, Role: model.RoleOrganizer})
		}
		memberships, err := tx.ListMembershipsByUser(name)
		if err != nil {
			return err
		}
		for _, m := range memberships {
			caps = append(caps, model.Capability{Hackathon: m.Hackathon, Role: model.RoleParticipant})
		}
		invitations, err := tx.ListInvitationsByInvitee(name)
		if err != nil {
			return err
		}
		for _, inv := range invitations {
			if inv.Status == model.InvitationAccepted {
				caps = append(caps, model.Capability{Hackathon: inv.Hackathon, Role: model.RoleJudge})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return caps, nil
}
