package service

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/internal/domain/model"
	"github.com/okian/hackathon/internal/domain/ranking"
	"github.com/okian/hackathon/internal/domain/schedule"
	apperrors "github.com/okian/hackathon/internal/errors"
	"github.com/okian/hackathon/pkg/metrics"
)

// judgingGate checks that judge may score hackathon h at now.
func (s *Service) judgingGate(tx repository.Tx, h model.Hackathon, judge string, now time.Time) error {
	ok, err := isAcceptedJudge(tx, h.Title, judge)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrNotAuthorizedJudge.WithMetadata("hackathon", h.Title, "judge", judge)
	}
	if h.Ranked() {
		return apperrors.ErrRankingFinalized.WithMetadata("hackathon", h.Title)
	}
	if !schedule.HasStarted(h, now) {
		return apperrors.ErrJudgingNotOpen.WithMetadata("hackathon", h.Title)
	}
	return nil
}

// RecordVote stores judge's score for team. A judge votes once per team;
// the team's running count and total move in the same transaction.
func (s *Service) RecordVote(ctx context.Context, judge, title, team string, score int, now time.Time) (v model.Vote, err error) {
	ctx, done := s.operation(ctx, "record_vote", true,
		attribute.String("hackathon", title), attribute.String("team", team),
		attribute.String("judge", judge), attribute.Int("score", score))
	defer done(&err)

	if !s.scores.Contains(score) {
		return model.Vote{}, apperrors.ErrScoreOutOfRange.WithMetadata("score", strconv.Itoa(score),
			"min", strconv.Itoa(s.scores.Min), "max", strconv.Itoa(s.scores.Max))
	}
	now = at(now)

	err = s.update(ctx, "record_vote", func(tx repository.Tx) error {
		h, err := getHackathon(tx, title)
		if err != nil {
			return err
		}
		if err := s.judgingGate(tx, h, judge, now); err != nil {
			return err
		}
		t, err := getTeam(tx, title, team)
		if err != nil {
			return err
		}

		v = model.Vote{ID: s.newID(), Hackathon: title, Team: team, Judge: judge, Score: score, CastAt: now}
		if err := tx.InsertVote(v); err != nil {
			return conflict(err, apperrors.ErrDuplicateVote, "hackathon", title, "team", team, "judge", judge)
		}
		t.VoteCount++
		t.ScoreTotal += score
		return tx.UpdateTeam(t)
	})
	if err != nil {
		return model.Vote{}, err
	}
	metrics.RecordVoteCast()
	return v, nil
}

// RecordEvaluation stores judge's commentary on a document. Authorization
// and windows follow the document's hackathon; only the team's newest
// document can be evaluated.
func (s *Service) RecordEvaluation(ctx context.Context, judge, documentID, text string, now time.Time) (e model.Evaluation, err error) {
	ctx, done := s.operation(ctx, "record_evaluation", true,
		attribute.String("document", documentID), attribute.String("judge", judge))
	defer done(&err)

	if err := required("text", text); err != nil {
		return model.Evaluation{}, err
	}
	now = at(now)

	err = s.update(ctx, "record_evaluation", func(tx repository.Tx) error {
		d, err := getDocument(tx, documentID)
		if err != nil {
			return err
		}
		h, err := getHackathon(tx, d.Hackathon)
		if err != nil {
			return err
		}
		if err := s.judgingGate(tx, h, judge, now); err != nil {
			return err
		}
		history, err := tx.ListDocuments(d.Hackathon, d.Team)
		if err != nil {
			return err
		}
		if n := len(history); n == 0 || history[n-1].ID != d.ID {
			return apperrors.ErrNotJudgingTarget.WithMetadata("document", d.ID, "hackathon", d.Hackathon, "team", d.Team)
		}

		e = model.Evaluation{
			ID:         s.newID(),
			DocumentID: d.ID,
			Hackathon:  d.Hackathon,
			Team:       d.Team,
			Judge:      judge,
			Text:       text,
			CreatedAt:  now,
		}
		return conflict(tx.InsertEvaluation(e), apperrors.ErrDuplicateEvaluation, "document", documentID, "judge", judge)
	})
	if err != nil {
		return model.Evaluation{}, err
	}
	metrics.RecordEvaluationWritten()
	return e, nil
}

// GenerateRanking computes and stores the final ranking once the event has
// concluded and every accepted judge has voted on every team. A ranked
// hackathon returns its stored ranking unchanged.
func (s *Service) GenerateRanking(ctx context.Context, title string, now time.Time) (entries []model.RankingEntry, err error) {
	ctx, done := s.operation(ctx, "generate_ranking", true, attribute.String("hackathon", title))
	defer done(&err)

	now = at(now)
	fresh := false
	err = s.update(ctx, "generate_ranking", func(tx repository.Tx) error {
		h, err := getHackathon(tx, title)
		if err != nil {
			return err
		}
		if h.Ranked() {
			entries = h.Ranking
			return nil
		}
		if !schedule.IsEventConcluded(h, now) {
			return apperrors.ErrEventNotConcluded.WithMetadata("hackathon", title)
		}

		teams, err := tx.ListTeams(title)
		if err != nil {
			return err
		}
		judges, err := acceptedJudges(tx, title)
		if err != nil {
			return err
		}
		votes, err := tx.ListVotes(title)
		if err != nil {
			return err
		}
		entries, err = s.ranker.Rank(ctx, ranking.Input{Hackathon: title, Teams: teams, Judges: judges, Votes: votes})
		if err != nil {
			return err
		}

		byName := make(map[string]model.Team, len(teams))
		for _, t := range teams {
			byName[t.Name] = t
		}
		for _, e := range entries {
			t := byName[e.Team]
			mean := e.MeanScore
			t.FinalScore = &mean
			if err := tx.UpdateTeam(t); err != nil {
				return err
			}
		}
		h.Ranking = entries
		h.RankedAt = &now
		fresh = true
		return tx.UpdateHackathon(h)
	})
	if err != nil {
		return nil, err
	}
	if fresh {
		metrics.RecordRankingFinalized()
	}
	return entries, nil
}

// Ranking returns the stored ranking of hackathon title.
func (s *Service) Ranking(ctx context.Context, title string) (entries []model.RankingEntry, err error) {
	ctx, done := s.operation(ctx, "get_ranking", false, attribute.String("hackathon", title))
	defer done(&err)

	err = s.view(ctx, "get_ranking", func(tx repository.Tx) error {
		h, err := getHackathon(tx, title)
		if err != nil {
			return err
		}
		if !h.Ranked() {
			return apperrors.ErrNotRanked.WithMetadata("hackathon", title)
		}
		entries = h.Ranking
		return nil
	})
	return entries, err
}

// Votes lists the votes cast in hackathon title.
func (s *Service) Votes(ctx context.Context, title string) (vs []model.Vote, err error) {
	ctx, done := s.operation(ctx, "list_votes", false, attribute.String("hackathon", title))
	defer done(&err)

	err = s.view(ctx, "list_votes", func(tx repository.Tx) error {
		if _, err := getHackathon(tx, title); err != nil {
			return err
		}
		vs, err = tx.ListVotes(title)
		return err
	})
	return vs, err
}

// Evaluations lists the evaluations written for a document.
func (s *Service) Evaluations(ctx context.Context, documentID string) (es []model.Evaluation, err error) {
	ctx, done := s.operation(ctx, "list_evaluations", false, attribute.String("document", documentID))
	defer done(&err)

	err = s.view(ctx, "list_evaluations", func(tx repository.Tx) error {
		if _, err := getDocument(tx, documentID); err != nil {
			return err
		}
		es, err = tx.ListEvaluations(documentID)
		return err
	})
	return es, err
}
