// Package schedule holds the temporal rules of a hackathon: window
// validation, lifecycle stages and judging overlap. Everything here is a pure
// function of the stored windows and a caller-supplied instant.
package schedule

import (
	"time"

	"github.com/okian/hackathon/internal/domain/model"
	apperrors "github.com/okian/hackathon/internal/errors"
)

// DefaultGap is the minimum time between registration end and event start.
const DefaultGap = 48 * time.Hour

// Window is a time interval. Overlap treats it as half-open, so windows that
// only touch at a boundary do not overlap.
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports start1 < end2 && end1 > start2.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}

// EventWindow returns the hackathon's execution window.
func EventWindow(h model.Hackathon) Window {
	return Window{Start: h.EventStart, End: h.EventEnd}
}

// Plan is the set of instants an organizer supplies at creation time.
type Plan struct {
	RegistrationStart time.Time
	RegistrationEnd   time.Time
	EventStart        time.Time
	EventEnd          time.Time
}

// Normalize validates the plan and derives RegistrationEnd as
// EventStart-gap when it was left zero.
func (p Plan) Normalize(gap time.Duration) (Plan, error) {
	if gap < 0 {
		gap = 0
	}
	switch {
	case p.EventStart.IsZero() || p.EventEnd.IsZero():
		return Plan{}, invalid("event window is required")
	case !p.EventStart.Before(p.EventEnd):
		return Plan{}, invalid("event start must precede event end")
	case p.RegistrationStart.IsZero():
		return Plan{}, invalid("registration start is required")
	}

	latestClose := p.EventStart.Add(-gap)
	if p.RegistrationEnd.IsZero() {
		p.RegistrationEnd = latestClose
	}
	if p.RegistrationEnd.After(latestClose) {
		return Plan{}, invalid("registration must close at least " + gap.String() + " before the event starts")
	}
	if !p.RegistrationStart.Before(p.RegistrationEnd) {
		return Plan{}, invalid("registration start must precede registration end")
	}
	return p, nil
}

func invalid(reason string) error {
	return apperrors.ErrInvalidSchedule.WithMetadata("reason", reason)
}

// IsRegistrationWindow reports registrationStart <= now < registrationEnd.
func IsRegistrationWindow(h model.Hackathon, now time.Time) bool {
	return !now.Before(h.RegistrationStart) && now.Before(h.RegistrationEnd)
}

// IsRegistrationOpen reports whether the window is open and seats remain.
func IsRegistrationOpen(h model.Hackathon, now time.Time) bool {
	return IsRegistrationWindow(h, now) && h.CurrentParticipants < h.MaxParticipants
}

// HasStarted reports now >= eventStart.
func HasStarted(h model.Hackathon, now time.Time) bool {
	return !now.Before(h.EventStart)
}

// IsEventConcluded reports now > eventEnd.
func IsEventConcluded(h model.Hackathon, now time.Time) bool {
	return now.After(h.EventEnd)
}

// StageAt places the hackathon in its lifecycle. Ranked is the only stage
// not derived from the clock.
func StageAt(h model.Hackathon, now time.Time) model.Stage {
	switch {
	case h.Ranked():
		return model.StageRanked
	case IsEventConcluded(h, now):
		return model.StageConcluded
	case HasStarted(h, now):
		return model.StageInProgress
	case !now.Before(h.RegistrationEnd):
		return model.StageRegistrationClosed
	case IsRegistrationWindow(h, now):
		return model.StageRegistrationOpen
	default:
		return model.StageScheduled
	}
}
