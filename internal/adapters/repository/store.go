// Package repository defines the persistence gateway used by the hackathon
// core and an in-memory implementation of it.
package repository

import (
	"context"

	"github.com/okian/hackathon/internal/domain/model"
)

// Store runs scoped transactions against the persisted state.
//
// Update runs fn in a read-write transaction: every write made through the
// Tx is committed when fn returns nil and discarded otherwise. View runs fn
// in a read-only transaction. Implementations surface uniqueness violations
// as ErrAlreadyExists, missing rows as ErrNotFound and infrastructure
// failures wrapped in ErrUnavailable.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Tx is the CRUD and list-by-foreign-key contract available inside a
// transaction. Lists are returned in insertion order.
type Tx interface {
	GetUser(name string) (model.User, error)
	InsertUser(u model.User) error

	GetHackathon(title string) (model.Hackathon, error)
	InsertHackathon(h model.Hackathon) error
	UpdateHackathon(h model.Hackathon) error
	ListHackathons() ([]model.Hackathon, error)
	ListHackathonsByOrganizer(organizer string) ([]model.Hackathon, error)

	GetTeam(hackathon, name string) (model.Team, error)
	InsertTeam(t model.Team) error
	UpdateTeam(t model.Team) error
	ListTeams(hackathon string) ([]model.Team, error)

	// GetMembership returns the user's membership for a hackathon. A user
	// holds at most one per hackathon.
	GetMembership(hackathon, user string) (model.Membership, error)
	InsertMembership(m model.Membership) error
	DeleteMembership(hackathon, user string) error
	ListMembers(hackathon, team string) ([]model.Membership, error)
	ListMembershipsByUser(user string) ([]model.Membership, error)

	GetDocument(id string) (model.Document, error)
	InsertDocument(d model.Document) error
	ListDocuments(hackathon, team string) ([]model.Document, error)

	GetInvitation(hackathon, invitee string) (model.Invitation, error)
	InsertInvitation(i model.Invitation) error
	UpdateInvitation(i model.Invitation) error
	ListInvitations(hackathon string) ([]model.Invitation, error)
	ListInvitationsByInvitee(invitee string) ([]model.Invitation, error)

	InsertVote(v model.Vote) error
	ListVotes(hackathon string) ([]model.Vote, error)

	InsertEvaluation(e model.Evaluation) error
	ListEvaluations(documentID string) ([]model.Evaluation, error)
}
