package simulation

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config holds the shape and pacing of one simulated hackathon.
type Config struct {
	BaseURL  string        // Base URL of the service
	Teams    int           // Number of teams to found
	TeamSize int           // Members per team, founder included
	Judges   int           // Number of judges invited and accepting
	Workers  int           // Concurrent HTTP workers
	Timeout  time.Duration // HTTP request timeout

	// RegistrationWindow must fit signups of every member; the server's
	// registration gap must not exceed Gap.
	RegistrationWindow time.Duration
	Gap                time.Duration
	EventWindow        time.Duration

	OutputFile string // Optional JSON report path
	Verbose    bool
}

// Validate checks that the run can be scheduled.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	case c.Teams < 1:
		return fmt.Errorf("%w: teams must be at least 1", ErrInvalidConfig)
	case c.TeamSize < 1:
		return fmt.Errorf("%w: team size must be at least 1", ErrInvalidConfig)
	case c.Judges < 1:
		return fmt.Errorf("%w: judges must be at least 1", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	case c.RegistrationWindow <= 0 || c.EventWindow <= 0:
		return fmt.Errorf("%w: windows must be positive", ErrInvalidConfig)
	case c.Gap < 0:
		return fmt.Errorf("%w: gap must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Entry is one row of the final ranking as served by the API.
type Entry struct {
	Rank      int     `json:"rank"`
	Team      string  `json:"team"`
	MeanScore float64 `json:"mean_score"`
	Votes     int     `json:"votes"`
}

// Stats holds run statistics.
type Stats struct {
	UsersRegistered     int           `json:"users_registered"`
	TeamsCreated        int           `json:"teams_created"`
	MembersJoined       int           `json:"members_joined"`
	InvitationsAccepted int           `json:"invitations_accepted"`
	DocumentsSubmitted  int           `json:"documents_submitted"`
	VotesCast           int           `json:"votes_cast"`
	EvaluationsWritten  int           `json:"evaluations_written"`
	Failed              int           `json:"failed"`
	StartTime           time.Time     `json:"start_time"`
	EndTime             time.Time     `json:"end_time"`
	Duration            time.Duration `json:"duration"`
}

// Report is what Run returns and optionally writes to OutputFile.
type Report struct {
	Hackathon string  `json:"hackathon"`
	Stats     Stats   `json:"stats"`
	Ranking   []Entry `json:"ranking"`
}
