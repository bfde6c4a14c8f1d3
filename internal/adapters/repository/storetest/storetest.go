// Package storetest holds the behaviour every repository.Store must share.
// Store implementations call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func at(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

var errRollback = errors.New("rollback")

// Run exercises store semantics against a fresh store from open.
func Run(t *testing.T, open func(t *testing.T) repository.Store) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := open(t)
		Reset(func() { _ = s.Close() })

		hackathon := model.Hackathon{
			Title:             "H1",
			Organizer:         "olga",
			Venue:             "Hall A",
			RegistrationStart: at(0),
			RegistrationEnd:   at(24),
			EventStart:        at(96),
			EventEnd:          at(120),
			MaxParticipants:   10,
			MaxTeamSize:       3,
			CreatedAt:         at(0),
		}
		seed := func() {
			So(s.Update(ctx, func(tx repository.Tx) error {
				if err := tx.InsertUser(model.User{Name: "olga", PasswordHash: []byte("hash"), CreatedAt: at(0)}); err != nil {
					return err
				}
				return tx.InsertHackathon(hackathon)
			}), ShouldBeNil)
		}

		Convey("When a user is inserted", func() {
			seed()

			Convey("Then it can be read back", func() {
				var u model.User
				So(s.View(ctx, func(tx repository.Tx) error {
					var err error
					u, err = tx.GetUser("olga")
					return err
				}), ShouldBeNil)
				So(u.Name, ShouldEqual, "olga")
				So(string(u.PasswordHash), ShouldEqual, "hash")
				So(u.CreatedAt.Equal(at(0)), ShouldBeTrue)
			})

			Convey("Then a second user with the same name conflicts", func() {
				err := s.Update(ctx, func(tx repository.Tx) error {
					return tx.InsertUser(model.User{Name: "olga", PasswordHash: []byte("x"), CreatedAt: at(1)})
				})
				So(errors.Is(err, repository.ErrAlreadyExists), ShouldBeTrue)
			})

			Convey("Then an unknown user is not found", func() {
				err := s.View(ctx, func(tx repository.Tx) error {
					_, err := tx.GetUser("nobody")
					return err
				})
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a transaction fails half way", func() {
			err := s.Update(ctx, func(tx repository.Tx) error {
				if err := tx.InsertUser(model.User{Name: "ghost", PasswordHash: []byte("x"), CreatedAt: at(0)}); err != nil {
					return err
				}
				return errRollback
			})

			Convey("Then none of its writes are visible", func() {
				So(errors.Is(err, errRollback), ShouldBeTrue)
				err := s.View(ctx, func(tx repository.Tx) error {
					_, err := tx.GetUser("ghost")
					return err
				})
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When writing inside a read-only transaction", func() {
			err := s.View(ctx, func(tx repository.Tx) error {
				return tx.InsertUser(model.User{Name: "ro", PasswordHash: []byte("x"), CreatedAt: at(0)})
			})

			Convey("Then the write is refused", func() {
				So(errors.Is(err, repository.ErrReadOnly), ShouldBeTrue)
			})
		})

		Convey("When a hackathon is ranked", func() {
			seed()
			ranked := at(130)
			hackathon.CurrentParticipants = 4
			hackathon.ProblemStatement = "build something"
			hackathon.Ranking = []model.RankingEntry{
				{Rank: 1, Team: "Beta", MeanScore: 9, Votes: 2},
				{Rank: 2, Team: "Alpha", MeanScore: 7, Votes: 2},
			}
			hackathon.RankedAt = &ranked
			So(s.Update(ctx, func(tx repository.Tx) error { return tx.UpdateHackathon(hackathon) }), ShouldBeNil)

			Convey("Then the ranking and counters round trip", func() {
				var got model.Hackathon
				var all, mine []model.Hackathon
				So(s.View(ctx, func(tx repository.Tx) error {
					var err error
					if got, err = tx.GetHackathon("H1"); err != nil {
						return err
					}
					if all, err = tx.ListHackathons(); err != nil {
						return err
					}
					mine, err = tx.ListHackathonsByOrganizer("olga")
					return err
				}), ShouldBeNil)
				So(got.Ranked(), ShouldBeTrue)
				So(got.RankedAt.Equal(ranked), ShouldBeTrue)
				So(got.Ranking, ShouldResemble, hackathon.Ranking)
				So(got.CurrentParticipants, ShouldEqual, 4)
				So(got.ProblemStatement, ShouldEqual, "build something")
				So(got.EventStart.Equal(at(96)), ShouldBeTrue)
				So(all, ShouldHaveLength, 1)
				So(mine, ShouldHaveLength, 1)
			})

			Convey("Then updating an unknown hackathon is not found", func() {
				err := s.Update(ctx, func(tx repository.Tx) error {
					return tx.UpdateHackathon(model.Hackathon{Title: "nope", Organizer: "olga"})
				})
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When teams and memberships are written", func() {
			seed()
			So(s.Update(ctx, func(tx repository.Tx) error {
				for i, name := range []string{"Zeta", "Alpha", "Mu"} {
					if err := tx.InsertTeam(model.Team{Hackathon: "H1", Name: name, Founder: "u" + name, CreatedAt: at(i)}); err != nil {
						return err
					}
					if err := tx.InsertMembership(model.Membership{Hackathon: "H1", Team: name, User: "u" + name, JoinedAt: at(i)}); err != nil {
						return err
					}
				}
				return tx.InsertMembership(model.Membership{Hackathon: "H1", Team: "Alpha", User: "bob", JoinedAt: at(5)})
			}), ShouldBeNil)

			Convey("Then teams list in creation order", func() {
				var teams []model.Team
				So(s.View(ctx, func(tx repository.Tx) error {
					var err error
					teams, err = tx.ListTeams("H1")
					return err
				}), ShouldBeNil)
				So(teams, ShouldHaveLength, 3)
				So(teams[0].Name, ShouldEqual, "Zeta")
				So(teams[1].Name, ShouldEqual, "Alpha")
				So(teams[2].Name, ShouldEqual, "Mu")
			})

			Convey("Then a duplicate team name conflicts", func() {
				err := s.Update(ctx, func(tx repository.Tx) error {
					return tx.InsertTeam(model.Team{Hackathon: "H1", Name: "Alpha", Founder: "x", CreatedAt: at(9)})
				})
				So(errors.Is(err, repository.ErrAlreadyExists), ShouldBeTrue)
			})

			Convey("Then a second membership in the same hackathon conflicts", func() {
				err := s.Update(ctx, func(tx repository.Tx) error {
					return tx.InsertMembership(model.Membership{Hackathon: "H1", Team: "Mu", User: "bob", JoinedAt: at(9)})
				})
				So(errors.Is(err, repository.ErrAlreadyExists), ShouldBeTrue)
			})

			Convey("Then members list in join order and leave cleanly", func() {
				var members []model.Membership
				So(s.View(ctx, func(tx repository.Tx) error {
					var err error
					members, err = tx.ListMembers("H1", "Alpha")
					return err
				}), ShouldBeNil)
				So(members, ShouldHaveLength, 2)
				So(members[0].User, ShouldEqual, "uAlpha")
				So(members[1].User, ShouldEqual, "bob")

				So(s.Update(ctx, func(tx repository.Tx) error { return tx.DeleteMembership("H1", "bob") }), ShouldBeNil)
				err := s.View(ctx, func(tx repository.Tx) error {
					_, err := tx.GetMembership("H1", "bob")
					return err
				})
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

				err = s.Update(ctx, func(tx repository.Tx) error { return tx.DeleteMembership("H1", "bob") })
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then team counters update", func() {
				score := 7.5
				So(s.Update(ctx, func(tx repository.Tx) error {
					t, err := tx.GetTeam("H1", "Alpha")
					if err != nil {
						return err
					}
					t.VoteCount, t.ScoreTotal, t.FinalScore = 2, 15, &score
					return tx.UpdateTeam(t)
				}), ShouldBeNil)

				var t model.Team
				So(s.View(ctx, func(tx repository.Tx) error {
					var err error
					t, err = tx.GetTeam("H1", "Alpha")
					return err
				}), ShouldBeNil)
				So(t.VoteCount, ShouldEqual, 2)
				So(t.ScoreTotal, ShouldEqual, 15)
				So(*t.FinalScore, ShouldEqual, 7.5)
				So(t.Founder, ShouldEqual, "uAlpha")
			})

			Convey("Then memberships list by user", func() {
				var ms []model.Membership
				So(s.View(ctx, func(tx repository.Tx) error {
					var err error
					ms, err = tx.ListMembershipsByUser("bob")
					return err
				}), ShouldBeNil)
				So(ms, ShouldHaveLength, 1)
				So(ms[0].Team, ShouldEqual, "Alpha")
			})
		})

		Convey("When documents are submitted", func() {
			seed()
			So(s.Update(ctx, func(tx repository.Tx) error {
				if err := tx.InsertTeam(model.Team{Hackathon: "H1", Name: "Alpha", Founder: "a", CreatedAt: at(1)}); err != nil {
					return err
				}
				for i, id := range []string{"d-2", "d-1", "d-3"} {
					if err := tx.InsertDocument(model.Document{ID: id, Hackathon: "H1", Team: "Alpha", Title: id, Body: "b", CreatedAt: at(2 + i)}); err != nil {
						return err
					}
				}
				return nil
			}), ShouldBeNil)

			Convey("Then they list in submission order", func() {
				var docs []model.Document
				So(s.View(ctx, func(tx repository.Tx) error {
					var err error
					docs, err = tx.ListDocuments("H1", "Alpha")
					return err
				}), ShouldBeNil)
				So(docs, ShouldHaveLength, 3)
				So(docs[0].ID, ShouldEqual, "d-2")
				So(docs[2].ID, ShouldEqual, "d-3")
			})

			Convey("Then evaluations are unique per judge and document", func() {
				So(s.Update(ctx, func(tx repository.Tx) error {
					return tx.InsertEvaluation(model.Evaluation{ID: "e1", DocumentID: "d-1", Hackathon: "H1", Team: "Alpha", Judge: "j1", Text: "ok", CreatedAt: at(100)})
				}), ShouldBeNil)
				err := s.Update(ctx, func(tx repository.Tx) error {
					return tx.InsertEvaluation(model.Evaluation{ID: "e2", DocumentID: "d-1", Hackathon: "H1", Team: "Alpha", Judge: "j1", Text: "again", CreatedAt: at(101)})
				})
				So(errors.Is(err, repository.ErrAlreadyExists), ShouldBeTrue)

				var evals []model.Evaluation
				So(s.View(ctx, func(tx repository.Tx) error {
					var err error
					evals, err = tx.ListEvaluations("d-1")
					return err
				}), ShouldBeNil)
				So(evals, ShouldHaveLength, 1)
				So(evals[0].Text, ShouldEqual, "ok")
			})
		})

		Convey("When invitations and votes are written", func() {
			seed()
			So(s.Update(ctx, func(tx repository.Tx) error {
				if err := tx.InsertInvitation(model.Invitation{ID: "i1", Hackathon: "H1", Organizer: "olga", Invitee: "j1", Status: model.InvitationSent, SentAt: at(1)}); err != nil {
					return err
				}
				return tx.InsertTeam(model.Team{Hackathon: "H1", Name: "Alpha", Founder: "a", CreatedAt: at(1)})
			}), ShouldBeNil)

			Convey("Then an invitation transitions and lists by invitee", func() {
				responded := at(2)
				So(s.Update(ctx, func(tx repository.Tx) error {
					inv, err := tx.GetInvitation("H1", "j1")
					if err != nil {
						return err
					}
					inv.Status, inv.RespondedAt = model.InvitationAccepted, &responded
					return tx.UpdateInvitation(inv)
				}), ShouldBeNil)

				var byHackathon, byInvitee []model.Invitation
				So(s.View(ctx, func(tx repository.Tx) error {
					var err error
					if byHackathon, err = tx.ListInvitations("H1"); err != nil {
						return err
					}
					byInvitee, err = tx.ListInvitationsByInvitee("j1")
					return err
				}), ShouldBeNil)
				So(byHackathon, ShouldHaveLength, 1)
				So(byInvitee, ShouldHaveLength, 1)
				So(byInvitee[0].Status, ShouldEqual, model.InvitationAccepted)
				So(byInvitee[0].RespondedAt.Equal(responded), ShouldBeTrue)
			})

			Convey("Then a duplicate invitation conflicts", func() {
				err := s.Update(ctx, func(tx repository.Tx) error {
					return tx.InsertInvitation(model.Invitation{ID: "i2", Hackathon: "H1", Organizer: "olga", Invitee: "j1", Status: model.InvitationSent, SentAt: at(3)})
				})
				So(errors.Is(err, repository.ErrAlreadyExists), ShouldBeTrue)
			})

			Convey("Then a second vote for the same team conflicts", func() {
				So(s.Update(ctx, func(tx repository.Tx) error {
					return tx.InsertVote(model.Vote{ID: "v1", Hackathon: "H1", Team: "Alpha", Judge: "j1", Score: 8, CastAt: at(100)})
				}), ShouldBeNil)
				err := s.Update(ctx, func(tx repository.Tx) error {
					return tx.InsertVote(model.Vote{ID: "v2", Hackathon: "H1", Team: "Alpha", Judge: "j1", Score: 3, CastAt: at(101)})
				})
				So(errors.Is(err, repository.ErrAlreadyExists), ShouldBeTrue)

				var votes []model.Vote
				So(s.View(ctx, func(tx repository.Tx) error {
					var err error
					votes, err = tx.ListVotes("H1")
					return err
				}), ShouldBeNil)
				So(votes, ShouldHaveLength, 1)
				So(votes[0].Score, ShouldEqual, 8)
			})
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)

			Convey("Then transactions report it as unavailable", func() {
				err := s.View(ctx, func(repository.Tx) error { return nil })
				So(errors.Is(err, repository.ErrUnavailable), ShouldBeTrue)
			})
		})
	})
}
