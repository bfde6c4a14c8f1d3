package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/hackathon/pkg/logger"
)

type member struct {
	team string
	user string
}

type ballot struct {
	judge string
	team  string
	score int
}

type review struct {
	judge    string
	document string
}

// run carries the state of one simulated hackathon across phases.
type run struct {
	cfg    *Config
	plan   Plan
	client *client
	stats  Stats
	log    logger.Logger

	// document id per team, filled during submission
	documents map[string]string
}

// Run drives one hackathon from signup to final ranking against the
// service at cfg.BaseURL and verifies the ranking against the planned
// votes.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &run{
		cfg:       cfg,
		plan:      generatePlan(cfg),
		client:    newClient(cfg.BaseURL, cfg.Timeout),
		log:       logger.Get().Named("simulation"),
		documents: make(map[string]string, cfg.Teams),
	}
	r.stats.StartTime = time.Now()

	r.log.Info(ctx, "starting hackathon simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("hackathon", r.plan.Hackathon),
		logger.Int("teams", cfg.Teams),
		logger.Int("teamSize", cfg.TeamSize),
		logger.Int("judges", cfg.Judges),
		logger.Int("workers", cfg.Workers))

	if err := r.checkServiceHealth(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}
	if err := r.signup(ctx); err != nil {
		return nil, fmt.Errorf("signup failed: %w", err)
	}
	eventStart, eventEnd, err := r.createHackathon(ctx)
	if err != nil {
		return nil, fmt.Errorf("hackathon creation failed: %w", err)
	}
	if err := r.formTeams(ctx); err != nil {
		return nil, fmt.Errorf("team formation failed: %w", err)
	}
	if err := r.recruitJudges(ctx); err != nil {
		return nil, fmt.Errorf("judge recruitment failed: %w", err)
	}

	r.log.Info(ctx, "waiting for the event to start", logger.Time("eventStart", eventStart))
	if err := waitUntil(ctx, eventStart); err != nil {
		return nil, err
	}
	if err := r.submitDocuments(ctx); err != nil {
		return nil, fmt.Errorf("document submission failed: %w", err)
	}
	if err := r.judge(ctx); err != nil {
		return nil, fmt.Errorf("judging failed: %w", err)
	}

	r.log.Info(ctx, "waiting for the event to conclude", logger.Time("eventEnd", eventEnd))
	if err := waitUntil(ctx, eventEnd.Add(settleDelay)); err != nil {
		return nil, err
	}
	ranking, err := r.rank(ctx)
	if err != nil {
		return nil, fmt.Errorf("ranking failed: %w", err)
	}
	if err := verifyRanking(r.plan, ranking); err != nil {
		return nil, fmt.Errorf("ranking verification failed: %w", err)
	}

	r.stats.EndTime = time.Now()
	r.stats.Duration = r.stats.EndTime.Sub(r.stats.StartTime)
	report := &Report{Hackathon: r.plan.Hackathon, Stats: r.stats, Ranking: ranking}

	if cfg.OutputFile != "" {
		if err := saveReport(cfg.OutputFile, report); err != nil {
			r.log.Warn(ctx, "failed to save report", logger.String("file", cfg.OutputFile), logger.Error(err))
		}
	}
	r.displayFinalStats(ctx, report)
	return report, nil
}

func (r *run) checkServiceHealth(ctx context.Context) error {
	if err := r.client.call(ctx, http.MethodGet, "/healthz", "", nil, nil); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	r.log.Info(ctx, "service is healthy")
	return nil
}

// tally folds a phase's counts into the stats and fails the phase when
// anything went wrong.
func (r *run) tally(phase string, counter *int, ok, failed int, err error) error {
	*counter += ok
	r.stats.Failed += failed
	if failed > 0 || err != nil {
		return fmt.Errorf("%s: %d failed: %w", phase, failed, err)
	}
	return nil
}

func (r *run) signup(ctx context.Context) error {
	ok, failed, err := fanOut(ctx, r.cfg.Workers, r.plan.Users(), func(ctx context.Context, user string) error {
		creds := map[string]string{"name": user, "password": r.plan.Password}
		if err := r.client.call(ctx, http.MethodPost, "/v1/users", "", creds, nil); err != nil {
			return fmt.Errorf("register %s: %w", user, err)
		}
		var tok struct {
			Token string `json:"token"`
		}
		if err := r.client.call(ctx, http.MethodPost, "/v1/tokens", "", creds, &tok); err != nil {
			return fmt.Errorf("token %s: %w", user, err)
		}
		r.client.setToken(user, tok.Token)
		return nil
	})
	return r.tally("signup", &r.stats.UsersRegistered, ok, failed, err)
}

// createHackathon opens registration now and schedules the event right
// after it, returning the event window.
func (r *run) createHackathon(ctx context.Context) (time.Time, time.Time, error) {
	regEnd := time.Now().UTC().Add(r.cfg.RegistrationWindow)
	start := regEnd.Add(r.cfg.Gap)
	end := start.Add(r.cfg.EventWindow)

	body := map[string]any{
		"title":             r.plan.Hackathon,
		"venue":             defaultVenue,
		"registration_end":  regEnd,
		"event_start":       start,
		"event_end":         end,
		"max_participants":  r.cfg.Teams * r.cfg.TeamSize,
		"max_team_size":     r.cfg.TeamSize,
		"problem_statement": "Build something the judges will remember.",
	}
	if err := r.client.call(ctx, http.MethodPost, "/v1/hackathons", r.plan.Organizer, body, nil); err != nil {
		return time.Time{}, time.Time{}, err
	}
	r.log.Info(ctx, "hackathon created",
		logger.String("hackathon", r.plan.Hackathon),
		logger.Time("registrationEnd", regEnd),
		logger.Time("eventStart", start),
		logger.Time("eventEnd", end))
	return start, end, nil
}

func (r *run) hackathonPath(parts ...string) string {
	p := "/v1/hackathons/" + url.PathEscape(r.plan.Hackathon)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// formTeams founds every team, then joins the remaining members.
func (r *run) formTeams(ctx context.Context) error {
	ok, failed, err := fanOut(ctx, r.cfg.Workers, r.plan.Teams, func(ctx context.Context, t TeamPlan) error {
		body := map[string]string{"name": t.Name}
		return r.client.call(ctx, http.MethodPost, r.hackathonPath("teams"), t.Founder, body, nil)
	})
	if err := r.tally("create teams", &r.stats.TeamsCreated, ok, failed, err); err != nil {
		return err
	}

	var members []member
	for _, t := range r.plan.Teams {
		for _, u := range t.Members {
			members = append(members, member{team: t.Name, user: u})
		}
	}
	ok, failed, err = fanOut(ctx, r.cfg.Workers, members, func(ctx context.Context, m member) error {
		return r.client.call(ctx, http.MethodPost, r.hackathonPath("teams", m.team, "members"), m.user, nil, nil)
	})
	return r.tally("join teams", &r.stats.MembersJoined, ok, failed, err)
}

func (r *run) recruitJudges(ctx context.Context) error {
	ok, failed, err := fanOut(ctx, r.cfg.Workers, r.plan.Judges, func(ctx context.Context, judge string) error {
		body := map[string]string{"invitee": judge}
		if err := r.client.call(ctx, http.MethodPost, r.hackathonPath("invitations"), r.plan.Organizer, body, nil); err != nil {
			return fmt.Errorf("invite %s: %w", judge, err)
		}
		return r.client.call(ctx, http.MethodPost, r.hackathonPath("invitations", "accept"), judge, nil, nil)
	})
	return r.tally("recruit judges", &r.stats.InvitationsAccepted, ok, failed, err)
}

func (r *run) submitDocuments(ctx context.Context) error {
	type submitted struct{ team, id string }
	results := make(chan submitted, len(r.plan.Teams))

	ok, failed, err := fanOut(ctx, r.cfg.Workers, r.plan.Teams, func(ctx context.Context, t TeamPlan) error {
		body := map[string]string{"title": "Pitch for " + t.Name, "body": "What " + t.Name + " built."}
		var doc struct {
			ID string `json:"id"`
		}
		if err := r.client.call(ctx, http.MethodPost, r.hackathonPath("teams", t.Name, "documents"), t.Founder, body, &doc); err != nil {
			return err
		}
		results <- submitted{team: t.Name, id: doc.ID}
		return nil
	})
	close(results)
	for s := range results {
		r.documents[s.team] = s.id
	}
	return r.tally("submit documents", &r.stats.DocumentsSubmitted, ok, failed, err)
}

// judge casts every planned vote and has every judge review every document.
func (r *run) judge(ctx context.Context) error {
	var ballots []ballot
	var reviews []review
	for _, judge := range r.plan.Judges {
		for _, t := range r.plan.Teams {
			ballots = append(ballots, ballot{judge: judge, team: t.Name, score: r.plan.Scores[judge][t.Name]})
			reviews = append(reviews, review{judge: judge, document: r.documents[t.Name]})
		}
	}

	ok, failed, err := fanOut(ctx, r.cfg.Workers, ballots, func(ctx context.Context, b ballot) error {
		body := map[string]int{"score": b.score}
		return r.client.call(ctx, http.MethodPost, r.hackathonPath("teams", b.team, "votes"), b.judge, body, nil)
	})
	if err := r.tally("cast votes", &r.stats.VotesCast, ok, failed, err); err != nil {
		return err
	}

	ok, failed, err = fanOut(ctx, r.cfg.Workers, reviews, func(ctx context.Context, rv review) error {
		body := map[string]string{"text": "Reviewed by " + rv.judge}
		return r.client.call(ctx, http.MethodPost, "/v1/documents/"+url.PathEscape(rv.document)+"/evaluations", rv.judge, body, nil)
	})
	return r.tally("write evaluations", &r.stats.EvaluationsWritten, ok, failed, err)
}

func (r *run) rank(ctx context.Context) ([]Entry, error) {
	if err := r.client.call(ctx, http.MethodPost, r.hackathonPath("ranking"), r.plan.Organizer, nil, nil); err != nil {
		return nil, err
	}
	var entries []Entry
	if err := r.client.call(ctx, http.MethodGet, r.hackathonPath("ranking"), "", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// waitUntil blocks until t or until ctx is done.
func waitUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func saveReport(filename string, report *Report) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryCreation); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, reportPermission)
}

func (r *run) displayFinalStats(ctx context.Context, report *Report) {
	s := report.Stats
	r.log.Info(ctx, "final statistics",
		logger.String("hackathon", report.Hackathon),
		logger.Int("usersRegistered", s.UsersRegistered),
		logger.Int("teamsCreated", s.TeamsCreated),
		logger.Int("membersJoined", s.MembersJoined),
		logger.Int("judges", s.InvitationsAccepted),
		logger.Int("documentsSubmitted", s.DocumentsSubmitted),
		logger.Int("votesCast", s.VotesCast),
		logger.Int("evaluationsWritten", s.EvaluationsWritten),
		logger.Duration("duration", s.Duration))

	top := min(len(report.Ranking), 10)
	for _, e := range report.Ranking[:top] {
		r.log.Info(ctx, "ranked team",
			logger.Int("rank", e.Rank),
			logger.String("team", e.Team),
			logger.Float64("meanScore", e.MeanScore))
	}
}
