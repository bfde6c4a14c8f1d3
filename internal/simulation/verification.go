package simulation

import (
	"errors"
	"fmt"
	"math"
)

// ErrRankingMismatch is returned when the served ranking disagrees with the
// planned votes.
var ErrRankingMismatch = errors.New("ranking does not match planned votes")

const meanTolerance = 1e-9

// verifyRanking checks that every team appears once with its planned mean
// and vote count, ranks run 1..n, and means never increase down the list.
// Ties may come in any order.
func verifyRanking(plan Plan, entries []Entry) error {
	if len(entries) != len(plan.Teams) {
		return fmt.Errorf("%w: %d entries for %d teams", ErrRankingMismatch, len(entries), len(plan.Teams))
	}

	expected := plan.ExpectedMeans()
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		want, ok := expected[e.Team]
		switch {
		case !ok:
			return fmt.Errorf("%w: unknown team %q", ErrRankingMismatch, e.Team)
		case seen[e.Team]:
			return fmt.Errorf("%w: team %q ranked twice", ErrRankingMismatch, e.Team)
		case e.Rank != i+1:
			return fmt.Errorf("%w: entry %d has rank %d", ErrRankingMismatch, i, e.Rank)
		case math.Abs(e.MeanScore-want) > meanTolerance:
			return fmt.Errorf("%w: team %q mean %.3f, planned %.3f", ErrRankingMismatch, e.Team, e.MeanScore, want)
		case e.Votes != len(plan.Judges):
			return fmt.Errorf("%w: team %q has %d votes, planned %d", ErrRankingMismatch, e.Team, e.Votes, len(plan.Judges))
		case i > 0 && e.MeanScore > entries[i-1].MeanScore:
			return fmt.Errorf("%w: entry %d outranks entry %d", ErrRankingMismatch, i, i-1)
		}
		seen[e.Team] = true
	}
	return nil
}
