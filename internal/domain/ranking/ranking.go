// Package ranking computes the final standing of a judged hackathon.
package ranking

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/hackathon/internal/domain/model"
	apperrors "github.com/okian/hackathon/internal/errors"
)

// Default score bounds for a single vote.
const (
	defaultMinScore = 0
	defaultMaxScore = 10
)

// ScoreRange is the closed interval a vote score must fall in.
type ScoreRange struct {
	Min int
	Max int
}

// DefaultScoreRange is 0..10.
var DefaultScoreRange = ScoreRange{Min: defaultMinScore, Max: defaultMaxScore}

// Contains reports Min <= score <= Max.
func (r ScoreRange) Contains(score int) bool {
	return score >= r.Min && score <= r.Max
}

// Input is everything the ranker needs. Teams must be in creation order and
// Judges in acceptance order; both orders are reflected in the output.
type Input struct {
	Hackathon string
	Teams     []model.Team
	Judges    []string
	Votes     []model.Vote
}

// Ranker turns a fully judged hackathon into an ordered ranking.
type Ranker interface {
	// Rank fails with *apperrors.IncompleteJudgingError while any accepted
	// judge has not voted on every team.
	Rank(ctx context.Context, in Input) ([]model.RankingEntry, error)
}

// Option applies a configuration option to the MeanRanker.
type Option func(*MeanRanker)

// WithScoreRange bounds the votes the ranker accepts.
func WithScoreRange(r ScoreRange) Option {
	return func(m *MeanRanker) {
		if r.Min < r.Max {
			m.scores = r
		}
	}
}

// MeanRanker ranks teams by the mean of their votes, highest first. Equal
// means keep team creation order.
type MeanRanker struct {
	scores ScoreRange
}

// NewMeanRanker creates a ranker with configuration options.
func NewMeanRanker(opts ...Option) *MeanRanker {
	m := &MeanRanker{scores: DefaultScoreRange}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// tally accumulates integer totals so that comparisons stay exact.
type tally struct {
	team  string
	sum   int
	count int
}

func (t tally) mean() float64 {
	if t.count == 0 {
		return 0
	}
	return float64(t.sum) / float64(t.count)
}

// above reports mean(a) > mean(b) without floating point error.
func above(a, b tally) bool {
	return a.sum*b.count > b.sum*a.count
}

// Rank implements Ranker.
func (m *MeanRanker) Rank(ctx context.Context, in Input) ([]model.RankingEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(in.Judges) == 0 {
		return nil, &apperrors.IncompleteJudgingError{Hackathon: in.Hackathon}
	}
	if missing := Missing(in); len(missing) > 0 {
		return nil, &apperrors.IncompleteJudgingError{Hackathon: in.Hackathon, Missing: missing}
	}

	byTeam := make(map[string]*tally, len(in.Teams))
	tallies := make([]*tally, len(in.Teams))
	for i, t := range in.Teams {
		tallies[i] = &tally{team: t.Name}
		byTeam[t.Name] = tallies[i]
	}
	for _, v := range in.Votes {
		if !m.scores.Contains(v.Score) {
			return nil, fmt.Errorf("vote by %s for %s: %w", v.Judge, v.Team, apperrors.ErrScoreOutOfRange)
		}
		if t, ok := byTeam[v.Team]; ok {
			t.sum += v.Score
			t.count++
		}
	}

	sort.SliceStable(tallies, func(i, j int) bool {
		return above(*tallies[i], *tallies[j])
	})

	entries := make([]model.RankingEntry, len(tallies))
	for i, t := range tallies {
		entries[i] = model.RankingEntry{
			Rank:      i + 1,
			Team:      t.team,
			MeanScore: t.mean(),
			Votes:     t.count,
		}
	}
	return entries, nil
}

// Missing lists the (judge, team) pairs without a vote, judge-major.
func Missing(in Input) []apperrors.MissingVote {
	voted := make(map[[2]string]struct{}, len(in.Votes))
	for _, v := range in.Votes {
		voted[[2]string{v.Judge, v.Team}] = struct{}{}
	}
	var missing []apperrors.MissingVote
	for _, j := range in.Judges {
		for _, t := range in.Teams {
			if _, ok := voted[[2]string{j, t.Name}]; !ok {
				missing = append(missing, apperrors.MissingVote{Judge: j, Team: t.Name})
			}
		}
	}
	return missing
}
