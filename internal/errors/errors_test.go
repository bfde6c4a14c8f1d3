package errors_test

import (
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/okian/hackathon/internal/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDomainErrors(t *testing.T) {
	Convey("Given a sentinel with metadata attached", t, func() {
		err := apperrors.ErrDuplicateVote.WithMetadata("judge", "j1", "team", "Alpha")

		Convey("Then it still matches the sentinel", func() {
			So(errors.Is(err, apperrors.ErrDuplicateVote), ShouldBeTrue)
			So(errors.Is(err, apperrors.ErrDuplicateEvaluation), ShouldBeFalse)
		})

		Convey("And the sentinel itself is untouched", func() {
			So(apperrors.ErrDuplicateVote.Metadata, ShouldBeNil)
			So(apperrors.MetadataOf(err)["team"], ShouldEqual, "Alpha")
		})

		Convey("And kind and code survive fmt wrapping", func() {
			wrapped := fmt.Errorf("vote: %w", err)
			So(apperrors.KindOf(wrapped), ShouldEqual, apperrors.KindConflict)
			So(apperrors.CodeOf(wrapped), ShouldEqual, apperrors.CodeDuplicateVote)
			So(apperrors.IsKind(wrapped, apperrors.KindConflict), ShouldBeTrue)
		})
	})

	Convey("Given a storage failure", t, func() {
		cause := errors.New("connection refused")
		err := apperrors.Unavailable("create_team", cause)

		Convey("Then it is classified as storage unavailable and keeps the cause", func() {
			So(apperrors.KindOf(err), ShouldEqual, apperrors.KindStorageUnavailable)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "connection refused")
		})
	})

	Convey("Given a foreign error", t, func() {
		err := errors.New("boom")

		Convey("Then it has no kind or code", func() {
			So(apperrors.KindOf(err), ShouldEqual, apperrors.KindUnknown)
			So(apperrors.CodeOf(err), ShouldEqual, apperrors.CodeUnknown)
			So(apperrors.MetadataOf(err), ShouldBeNil)
		})
	})

	Convey("Given an incomplete judging error", t, func() {
		err := &apperrors.IncompleteJudgingError{
			Hackathon: "H1",
			Missing: []apperrors.MissingVote{
				{Judge: "j1", Team: "Beta"},
				{Judge: "j2", Team: "Beta"},
			},
		}

		Convey("Then it names the missing pairs", func() {
			So(err.Error(), ShouldContainSubstring, "j1/Beta")
			So(err.Error(), ShouldContainSubstring, "j2/Beta")
		})

		Convey("And it is recognised through the sentinel", func() {
			var wrapped error = fmt.Errorf("rank: %w", err)
			So(errors.Is(wrapped, apperrors.ErrIncompleteJudging), ShouldBeTrue)
			So(apperrors.KindOf(wrapped), ShouldEqual, apperrors.KindIncompleteJudging)

			var ij *apperrors.IncompleteJudgingError
			So(errors.As(wrapped, &ij), ShouldBeTrue)
			So(ij.Missing, ShouldHaveLength, 2)
		})
	})
}
