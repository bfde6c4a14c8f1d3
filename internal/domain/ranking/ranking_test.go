package ranking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/hackathon/internal/domain/model"
	"github.com/okian/hackathon/internal/domain/ranking"
	apperrors "github.com/okian/hackathon/internal/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func teams(names ...string) []model.Team {
	out := make([]model.Team, len(names))
	for i, n := range names {
		out[i] = model.Team{Hackathon: "H1", Name: n}
	}
	return out
}

func vote(judge, team string, score int) model.Vote {
	return model.Vote{Hackathon: "H1", Judge: judge, Team: team, Score: score}
}

func TestMeanRanker(t *testing.T) {
	ctx := context.Background()

	Convey("Given two judges and two teams", t, func() {
		r := ranking.NewMeanRanker()
		in := ranking.Input{
			Hackathon: "H1",
			Teams:     teams("Alpha", "Beta"),
			Judges:    []string{"j1", "j2"},
			Votes:     []model.Vote{vote("j1", "Alpha", 8), vote("j2", "Alpha", 6)},
		}

		Convey("When Beta has no votes", func() {
			_, err := r.Rank(ctx, in)

			Convey("Then ranking is refused with both missing pairs", func() {
				var ij *apperrors.IncompleteJudgingError
				So(errors.As(err, &ij), ShouldBeTrue)
				So(ij.Missing, ShouldResemble, []apperrors.MissingVote{
					{Judge: "j1", Team: "Beta"},
					{Judge: "j2", Team: "Beta"},
				})
				So(apperrors.KindOf(err), ShouldEqual, apperrors.KindIncompleteJudging)
			})
		})

		Convey("When every judge voted on every team", func() {
			in.Votes = append(in.Votes, vote("j1", "Beta", 9), vote("j2", "Beta", 9))
			entries, err := r.Rank(ctx, in)

			Convey("Then teams are ordered by mean score", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldResemble, []model.RankingEntry{
					{Rank: 1, Team: "Beta", MeanScore: 9, Votes: 2},
					{Rank: 2, Team: "Alpha", MeanScore: 7, Votes: 2},
				})
			})
		})
	})

	Convey("Given teams with equal means", t, func() {
		r := ranking.NewMeanRanker()
		in := ranking.Input{
			Hackathon: "H1",
			Teams:     teams("Gamma", "Alpha", "Beta"),
			Judges:    []string{"j1"},
			Votes:     []model.Vote{vote("j1", "Alpha", 5), vote("j1", "Beta", 7), vote("j1", "Gamma", 5)},
		}

		Convey("Then ties keep creation order and ranks stay distinct", func() {
			entries, err := r.Rank(ctx, in)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 3)
			So(entries[0].Team, ShouldEqual, "Beta")
			So(entries[1].Team, ShouldEqual, "Gamma")
			So(entries[2].Team, ShouldEqual, "Alpha")
			for i, e := range entries {
				So(e.Rank, ShouldEqual, i+1)
				if i > 0 {
					So(e.MeanScore, ShouldBeLessThanOrEqualTo, entries[i-1].MeanScore)
				}
			}
		})
	})

	Convey("Given no accepted judges", t, func() {
		_, err := ranking.NewMeanRanker().Rank(ctx, ranking.Input{Hackathon: "H1", Teams: teams("Alpha")})

		Convey("Then judging is incomplete with nothing to list", func() {
			var ij *apperrors.IncompleteJudgingError
			So(errors.As(err, &ij), ShouldBeTrue)
			So(ij.Missing, ShouldBeEmpty)
		})
	})

	Convey("Given a hackathon without teams", t, func() {
		entries, err := ranking.NewMeanRanker().Rank(ctx, ranking.Input{Hackathon: "H1", Judges: []string{"j1"}})

		Convey("Then the ranking is empty", func() {
			So(err, ShouldBeNil)
			So(entries, ShouldBeEmpty)
		})
	})

	Convey("Given a vote outside the configured range", t, func() {
		r := ranking.NewMeanRanker(ranking.WithScoreRange(ranking.ScoreRange{Min: 1, Max: 5}))
		in := ranking.Input{
			Hackathon: "H1",
			Teams:     teams("Alpha"),
			Judges:    []string{"j1"},
			Votes:     []model.Vote{vote("j1", "Alpha", 9)},
		}

		Convey("Then it is rejected", func() {
			_, err := r.Rank(ctx, in)
			So(errors.Is(err, apperrors.ErrScoreOutOfRange), ShouldBeTrue)
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		Convey("Then ranking stops early", func() {
			_, err := ranking.NewMeanRanker().Rank(cctx, ranking.Input{Judges: []string{"j1"}})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestScoreRange(t *testing.T) {
	Convey("Given the default range", t, func() {
		r := ranking.DefaultScoreRange

		Convey("Then its bounds are inclusive", func() {
			So(r.Contains(0), ShouldBeTrue)
			So(r.Contains(10), ShouldBeTrue)
			So(r.Contains(-1), ShouldBeFalse)
			So(r.Contains(11), ShouldBeFalse)
		})
	})
}
