package gormstore

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/internal/domain/model"
)

// tx implements repository.Tx over one gorm transaction. In write
// transactions on postgres, user and hackathon reads take row locks so that
// check-then-act sequences on the same parent serialize.
type tx struct {
	db       *gorm.DB
	writable bool
	lock     bool
}

func (t *tx) locked() *gorm.DB {
	if t.lock {
		return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return t.db
}

func (t *tx) writeCheck() error {
	if !t.writable {
		return repository.ErrReadOnly
	}
	return nil
}

// updated turns a zero-row update into ErrNotFound.
func updated(what string, res *gorm.DB) error {
	if res.Error != nil {
		return classify(what, res.Error)
	}
	if res.RowsAffected == 0 {
		return classify(what, gorm.ErrRecordNotFound)
	}
	return nil
}

func (t *tx) GetUser(name string) (model.User, error) {
	var row userRow
	if err := t.locked().Where("name = ?", name).First(&row).Error; err != nil {
		return model.User{}, classify("get user", err)
	}
	return row.model(), nil
}

func (t *tx) InsertUser(u model.User) error {
	if err := t.writeCheck(); err != nil {
		return err
	}
	row := fromUser(u)
	return classify("insert user", t.db.Create(&row).Error)
}

func (t *tx) GetHackathon(title string) (model.Hackathon, error) {
	var row hackathonRow
	if err := t.locked().Where("title = ?", title).First(&row).Error; err != nil {
		return model.Hackathon{}, classify("get hackathon", err)
	}
	return row.model()
}

func (t *tx) InsertHackathon(h model.Hackathon) error {
	if err := t.writeCheck(); err != nil {
		return err
	}
	row, err := fromHackathon(h)
	if err != nil {
		return err
	}
	return classify("insert hackathon", t.db.Create(&row).Error)
}

func (t *tx) UpdateHackathon(h model.Hackathon) error {
	if err := t.writeCheck(); err != nil {
		return err
	}
	row, err := fromHackathon(h)
	if err != nil {
		return err
	}
	res := t.db.Model(&hackathonRow{}).Where("title = ?", h.Title).Updates(map[string]any{
		"organizer":            row.Organizer,
		"venue":                row.Venue,
		"registration_start":   row.RegistrationStart,
		"registration_end":     row.RegistrationEnd,
		"event_start":          row.EventStart,
		"event_end":            row.EventEnd,
		"max_participants":     row.MaxParticipants,
		"max_team_size":        row.MaxTeamSize,
		"current_participants": row.CurrentParticipants,
		"problem_statement":    row.ProblemStatement,
		"ranking":              row.Ranking,
		"ranked_at":            row.RankedAt,
	})
	return updated("update hackathon", res)
}

func (t *tx) listHackathons(q *gorm.DB) ([]model.Hackathon, error) {
	var rows []hackathonRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, classify("list hackathons", err)
	}
	out := make([]model.Hackathon, 0, len(rows))
	for _, r := range rows {
		h, err := r.model()
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (t *tx) ListHackathons() ([]model.Hackathon, error) {
	return t.listHackathons(t.db)
}

func (t *tx) ListHackathonsByOrganizer(organizer string) ([]model.Hackathon, error) {
	return t.listHackathons(t.db.Where("organizer = ?", organizer))
}

func (t *tx) GetTeam(hackathon, name string) (model.Team, error) {
	var row teamRow
	if err := t.db.Where("hackathon = ? AND name = ?", hackathon, name).First(&row).Error; err != nil {
		return model.Team{}, classify("get team", err)
	}
	return row.model(), nil
}

func (t *tx) InsertTeam(team model.Team) error {
	if err := t.writeCheck(); err != nil {
		return err
	}
	row := fromTeam(team)
	return classify("insert team", t.db.Create(&row).Error)
}

func (t *tx) UpdateTeam(team model.Team) error {
	if err := t.writeCheck(); err != nil {
		return err
	}
	res := t.db.Model(&teamRow{}).
		Where("hackathon = ? AND name = ?", team.Hackathon, team.Name).
		Updates(map[string]any{
			"founder":     team.Founder,
			"vote_count":  team.VoteCount,
			"score_total": team.ScoreTotal,
			"final_score": team.FinalScore,
		})
	return updated("update team", res)
}

func (t *tx) ListTeams(hackathon string) ([]model.Team, error) {
	var rows []teamRow
	if err := t.db.Where("hackathon = ?", hackathon).Order("id").Find(&rows).Error; err != nil {
		return nil, classify("list teams", err)
	}
	out := make([]model.Team, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (t *tx) GetMembership(hackathon, user string) (model.Membership, error) {
	var row membershipRow
	if err := t.db.Where("hackathon = ? AND user_name = ?", hackathon, user).First(&row).Error; err != nil {
		return model.Membership{}, classify("get membership", err)
	}
	return row.model(), nil
}

func (t *tx) InsertMembership(m model.Membership) error {
	if err := t.writeCheck(); err != nil {
		return err
	}
	row := membershipRow{Hackathon: m.Hackathon, Team: m.Team, User: m.User, JoinedAt: m.JoinedAt}
	return classify("insert membership", t.db.Create(&row).Error)
}

func (t *tx) DeleteMembership(hackathon, user string) error {
	if err := t.writeCheck(); err != nil {
		return err
	}
	res := t.db.Where("hackathon = ? AND user_name = ?", hackathon, user).Delete(&membershipRow{})
	return updated("delete membership", res)
}

func (t *tx) listMemberships(what string, q *gorm.DB) ([]model.Membership, error) {
	var rows []membershipRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, classify(what, err)
	}
	out := make([]model.Membership, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (t *tx) ListMembers(hackathon, team string) ([]model.Membership, error) {
	return t.listMemberships("list members", t.db.Where("hackathon = ? AND team = ?", hackathon, team))
}

func (t *tx) ListMembershipsByUser(user string) ([]model.Membership, error) {
	return t.listMemberships("list memberships", t.db.Where("user_name = ?", user))
}

func (t *tx) GetDocument(id string) (model.Document, error) {
	var row documentRow
	if err := t.db.Where("id = ?", id).First(&row).Error; err != nil {
		return model.Document{}, classify("get document", err)
	}
	return row.model(), nil
}

func (t *tx) InsertDocument(d model.Document) error {
	if err := t.writeCheck(); err != nil {
		return err
	}
	row := documentRow{ID: d.ID, Hackathon: d.Hackathon, Team: d.Team, Title: d.Title, Body: d.Body, CreatedAt: d.CreatedAt}
	return classify("insert document", t.db.Create(&row).Error)
}

func (t *tx) ListDocuments(hackathon, team string) ([]model.Document, error) {
	var rows []documentRow
	if err := t.db.Where("hackathon = ? AND team = ?", hackathon, team).Order("seq").Find(&rows).Error; err != nil {
		return nil, classify("list documents", err)
	}
	out := make([]model.Document, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (t *tx) GetInvitation(hackathon, invitee string) (model.Invitation, error) {
	var row invitationRow
	if err := t.db.Where("hackathon = ? AND invitee = ?", hackathon, invitee).First(&row).Error; err != nil {
		return model.Invitation{}, classify("get invitation", err)
	}
	return row.model(), nil
}

func (t *tx) InsertInvitation(i model.Invitation) error {
	if err := t.writeCheck(); err != nil {
		return err
	}
	row := fromInvitation(i)
	return classify("insert invitation", t.db.Create(&row).Error)
}

func (t *tx) UpdateInvitation(i model.Invitation) error {
	if err := t.writeCheck(); err != nil {
		return err
	}
	res := t.db.Model(&invitationRow{}).
		Where("hackathon = ? AND invitee = ?", i.Hackathon, i.Invitee).
		Updates(map[string]any{
			"organizer":    i.Organizer,
			"status":       string(i.Status),
			"sent_at":      i.SentAt,
			"responded_at": i.RespondedAt,
		})
	return updated("update invitation", res)
}

func (t *tx) listInvitations(what string, q *gorm.DB) ([]model.Invitation, error) {
	var rows []invitationRow
	if err := q.Order("seq").Find(&rows).Error; err != nil {
		return nil, classify(what, err)
	}
	out := make([]model.Invitation, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (t *tx) ListInvitations(hackathon string) ([]model.Invitation, error) {
	return t.listInvitations("list invitations", t.db.Where("hackathon = ?", hackathon))
}

func (t *tx) ListInvitationsByInvitee(invitee string) ([]model.Invitation, error) {
	return t.listInvitations("list invitations", t.db.Where("invitee = ?", invitee))
}

func (t *tx) InsertVote(v model.Vote) error {
	if err := t.writeCheck(); err != nil {
		return err
	}
	row := voteRow{ID: v.ID, Hackathon: v.Hackathon, Team: v.Team, Judge: v.Judge, Score: v.Score, CastAt: v.CastAt}
	return classify("insert vote", t.db.Create(&row).Error)
}

func (t *tx) ListVotes(hackathon string) ([]model.Vote, error) {
	var rows []voteRow
	if err := t.db.Where("hackathon = ?", hackathon).Order("seq").Find(&rows).Error; err != nil {
		return nil, classify("list votes", err)
	}
	out := make([]model.Vote, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (t *tx) InsertEvaluation(e model.Evaluation) error {
	if err := t.writeCheck(); err != nil {
		return err
	}
	row := evaluationRow{
		ID:         e.ID,
		DocumentID: e.DocumentID,
		Judge:      e.Judge,
		Hackathon:  e.Hackathon,
		Team:       e.Team,
		Text:       e.Text,
		CreatedAt:  e.CreatedAt,
	}
	return classify("insert evaluation", t.db.Create(&row).Error)
}

func (t *tx) ListEvaluations(documentID string) ([]model.Evaluation, error) {
	var rows []evaluationRow
	if err := t.db.Where("document_id = ?", documentID).Order("seq").Find(&rows).Error; err != nil {
		return nil, classify("list evaluations", err)
	}
	out := make([]model.Evaluation, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}
