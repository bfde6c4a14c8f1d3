package simulation

import (
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

// Plan fixes every name and score of a run before any request is sent, so
// the ranking can be checked against it afterwards.
type Plan struct {
	Hackathon string
	Organizer string
	Password  string
	Judges    []string
	Teams     []TeamPlan

	// Scores[judge][team] is the vote that judge casts.
	Scores map[string]map[string]int
}

// TeamPlan names a team, its founder and the members who join later.
type TeamPlan struct {
	Name    string
	Founder string
	Members []string
}

// scoreBands spreads votes the way real judging does: mostly average,
// a few outstanding or weak teams.
var scoreBands = []struct{ min, span int }{
	{3, 4},  // average
	{7, 2},  // strong
	{0, 3},  // weak
	{9, 1},  // outstanding
	{0, 1},  // very weak
	{6, 2},  // above average
	{2, 2},  // below average
	{0, 10}, // anything
}

// randInt returns a uniform integer in [0, n).
func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func generateScore() int {
	b := scoreBands[randInt(len(scoreBands))]
	return b.min + randInt(b.span+1)
}

// generatePlan names everything after a short run id so repeated runs
// against one server do not collide.
func generatePlan(cfg *Config) Plan {
	run := uuid.NewString()[:8]
	p := Plan{
		Hackathon: "sim-" + run,
		Organizer: "organizer-" + run,
		Password:  "sim-pass-" + run,
		Scores:    make(map[string]map[string]int, cfg.Judges),
	}
	for i := range cfg.Teams {
		t := TeamPlan{
			Name:    "team-" + run + "-" + strconv.Itoa(i+1),
			Founder: "founder-" + run + "-" + strconv.Itoa(i+1),
		}
		for j := 1; j < cfg.TeamSize; j++ {
			t.Members = append(t.Members, "member-"+run+"-"+strconv.Itoa(i+1)+"-"+strconv.Itoa(j))
		}
		p.Teams = append(p.Teams, t)
	}
	for i := range cfg.Judges {
		judge := "judge-" + run + "-" + strconv.Itoa(i+1)
		p.Judges = append(p.Judges, judge)
		p.Scores[judge] = make(map[string]int, len(p.Teams))
		for _, t := range p.Teams {
			p.Scores[judge][t.Name] = generateScore()
		}
	}
	return p
}

// Users lists every account the run needs.
func (p Plan) Users() []string {
	users := []string{p.Organizer}
	users = append(users, p.Judges...)
	for _, t := range p.Teams {
		users = append(users, t.Founder)
		users = append(users, t.Members...)
	}
	return users
}

// ExpectedMeans returns the mean planned score per team.
func (p Plan) ExpectedMeans() map[string]float64 {
	means := make(map[string]float64, len(p.Teams))
	if len(p.Judges) == 0 {
		return means
	}
	for _, t := range p.Teams {
		total := 0
		for _, judge := range p.Judges {
			total += p.Scores[judge][t.Name]
		}
		means[t.Name] = float64(total) / float64(len(p.Judges))
	}
	return means
}
