package schedule_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/hackathon/internal/domain/model"
	"github.com/okian/hackathon/internal/domain/schedule"
	apperrors "github.com/okian/hackathon/internal/errors"
	. "github.com/smartystreets/goconvey/convey"
)

var day0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return day0.Add(time.Duration(n) * 24 * time.Hour) }

func TestPlanNormalize(t *testing.T) {
	Convey("Given a plan with an explicit registration end", t, func() {
		p := schedule.Plan{RegistrationStart: day(0), RegistrationEnd: day(5), EventStart: day(7), EventEnd: day(9)}

		Convey("When the gap is respected", func() {
			out, err := p.Normalize(schedule.DefaultGap)

			Convey("Then the plan is kept as is", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, p)
			})
		})

		Convey("When registration closes inside the gap", func() {
			p.RegistrationEnd = day(6)
			_, err := p.Normalize(schedule.DefaultGap)

			Convey("Then it is an invalid schedule", func() {
				So(errors.Is(err, apperrors.ErrInvalidSchedule), ShouldBeTrue)
				So(apperrors.KindOf(err), ShouldEqual, apperrors.KindWindow)
			})
		})
	})

	Convey("Given a plan without registration end", t, func() {
		p := schedule.Plan{RegistrationStart: day(0), EventStart: day(7), EventEnd: day(9)}

		Convey("Then registration end is derived from the gap", func() {
			out, err := p.Normalize(schedule.DefaultGap)
			So(err, ShouldBeNil)
			So(out.RegistrationEnd, ShouldEqual, day(5))
		})

		Convey("Then a registration start after the derived end is rejected", func() {
			p.RegistrationStart = day(6)
			_, err := p.Normalize(schedule.DefaultGap)
			So(errors.Is(err, apperrors.ErrInvalidSchedule), ShouldBeTrue)
		})
	})

	Convey("Given malformed event windows", t, func() {
		Convey("Then an inverted event window is rejected", func() {
			_, err := schedule.Plan{RegistrationStart: day(0), EventStart: day(9), EventEnd: day(7)}.Normalize(schedule.DefaultGap)
			So(errors.Is(err, apperrors.ErrInvalidSchedule), ShouldBeTrue)
		})

		Convey("Then an empty event window is rejected", func() {
			_, err := schedule.Plan{RegistrationStart: day(0), EventStart: day(7), EventEnd: day(7)}.Normalize(schedule.DefaultGap)
			So(errors.Is(err, apperrors.ErrInvalidSchedule), ShouldBeTrue)
		})

		Convey("Then missing instants are rejected", func() {
			_, err := schedule.Plan{RegistrationStart: day(0)}.Normalize(schedule.DefaultGap)
			So(errors.Is(err, apperrors.ErrInvalidSchedule), ShouldBeTrue)
			_, err = schedule.Plan{EventStart: day(7), EventEnd: day(9)}.Normalize(schedule.DefaultGap)
			So(errors.Is(err, apperrors.ErrInvalidSchedule), ShouldBeTrue)
		})
	})
}

func TestWindowOverlap(t *testing.T) {
	Convey("Given a judge committed to [day7, day9)", t, func() {
		h1 := schedule.Window{Start: day(7), End: day(9)}

		Convey("Then [day8, day10) overlaps", func() {
			So(h1.Overlaps(schedule.Window{Start: day(8), End: day(10)}), ShouldBeTrue)
		})

		Convey("Then [day9, day11) only touches and does not overlap", func() {
			So(h1.Overlaps(schedule.Window{Start: day(9), End: day(11)}), ShouldBeFalse)
		})

		Convey("Then an enclosing window overlaps in both directions", func() {
			outer := schedule.Window{Start: day(6), End: day(12)}
			So(h1.Overlaps(outer), ShouldBeTrue)
			So(outer.Overlaps(h1), ShouldBeTrue)
		})

		Convey("Then a window ending where it starts does not overlap", func() {
			So(h1.Overlaps(schedule.Window{Start: day(5), End: day(7)}), ShouldBeFalse)
		})
	})
}

func TestStages(t *testing.T) {
	Convey("Given hackathon H1", t, func() {
		h := model.Hackathon{
			Title:             "H1",
			RegistrationStart: day(0),
			RegistrationEnd:   day(5),
			EventStart:        day(7),
			EventEnd:          day(9),
			MaxParticipants:   2,
			MaxTeamSize:       2,
		}

		Convey("Then the stage follows the clock", func() {
			So(schedule.StageAt(h, day(-1)), ShouldEqual, model.StageScheduled)
			So(schedule.StageAt(h, day(0)), ShouldEqual, model.StageRegistrationOpen)
			So(schedule.StageAt(h, day(5)), ShouldEqual, model.StageRegistrationClosed)
			So(schedule.StageAt(h, day(7)), ShouldEqual, model.StageInProgress)
			So(schedule.StageAt(h, day(9)), ShouldEqual, model.StageInProgress)
			So(schedule.StageAt(h, day(10)), ShouldEqual, model.StageConcluded)
		})

		Convey("Then a stored ranking moves it to ranked", func() {
			at := day(10)
			h.RankedAt = &at
			So(schedule.StageAt(h, day(11)), ShouldEqual, model.StageRanked)
		})

		Convey("Then registration is open only inside the window with seats left", func() {
			So(schedule.IsRegistrationOpen(h, day(1)), ShouldBeTrue)
			So(schedule.IsRegistrationOpen(h, day(6)), ShouldBeFalse)
			h.CurrentParticipants = 2
			So(schedule.IsRegistrationOpen(h, day(1)), ShouldBeFalse)
			So(schedule.IsRegistrationWindow(h, day(1)), ShouldBeTrue)
		})

		Convey("Then the event concludes strictly after its end", func() {
			So(schedule.IsEventConcluded(h, day(9)), ShouldBeFalse)
			So(schedule.IsEventConcluded(h, day(9).Add(time.Nanosecond)), ShouldBeTrue)
		})
	})
}
