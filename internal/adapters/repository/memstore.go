package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/hackathon/internal/domain/model"
	"github.com/okian/hackathon/pkg/metrics"
)

const defaultMetricsUpdateInterval = 5 * time.Second

// table is an insertion-ordered map. Tables are treated as immutable once
// published; writers clone before mutating.
type table[K comparable, V any] struct {
	rows  map[K]V
	order []K
}

func newTable[K comparable, V any]() *table[K, V] {
	return &table[K, V]{rows: make(map[K]V)}
}

func (t *table[K, V]) clone() *table[K, V] {
	rows := make(map[K]V, len(t.rows))
	for k, v := range t.rows {
		rows[k] = v
	}
	return &table[K, V]{rows: rows, order: slices.Clone(t.order)}
}

func (t *table[K, V]) get(k K) (V, bool) {
	v, ok := t.rows[k]
	return v, ok
}

func (t *table[K, V]) insert(k K, v V) bool {
	if _, ok := t.rows[k]; ok {
		return false
	}
	t.rows[k] = v
	t.order = append(t.order, k)
	return true
}

func (t *table[K, V]) replace(k K, v V) bool {
	if _, ok := t.rows[k]; !ok {
		return false
	}
	t.rows[k] = v
	return true
}

func (t *table[K, V]) remove(k K) bool {
	if _, ok := t.rows[k]; !ok {
		return false
	}
	delete(t.rows, k)
	t.order = slices.DeleteFunc(t.order, func(o K) bool { return o == k })
	return true
}

func (t *table[K, V]) list(keep func(V) bool) []V {
	out := make([]V, 0)
	for _, k := range t.order {
		if v := t.rows[k]; keep(v) {
			out = append(out, v)
		}
	}
	return out
}

type pairKey struct{ a, b string }

type voteKey struct{ hackathon, team, judge string }

// state is one published version of the store. Team and membership keys are
// (hackathon, name) and (hackathon, user); evaluations are keyed by
// (document, judge).
type state struct {
	users       *table[string, model.User]
	hackathons  *table[string, model.Hackathon]
	teams       *table[pairKey, model.Team]
	memberships *table[pairKey, model.Membership]
	documents   *table[string, model.Document]
	invitations *table[pairKey, model.Invitation]
	votes       *table[voteKey, model.Vote]
	evaluations *table[pairKey, model.Evaluation]
}

func newState() *state {
	return &state{
		users:       newTable[string, model.User](),
		hackathons:  newTable[string, model.Hackathon](),
		teams:       newTable[pairKey, model.Team](),
		memberships: newTable[pairKey, model.Membership](),
		documents:   newTable[string, model.Document](),
		invitations: newTable[pairKey, model.Invitation](),
		votes:       newTable[voteKey, model.Vote](),
		evaluations: newTable[pairKey, model.Evaluation](),
	}
}

// MemoryStore is an in-process Store. Writers are serialized by a single
// lock and work on copy-on-write tables, so a failed Update leaves no trace.
type MemoryStore struct {
	mu     sync.RWMutex
	st     *state
	closed bool

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore constructs an empty memory store with configuration options.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		st:                    newState(),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Update implements Store.Update.
func (s *MemoryStore) Update(ctx context.Context, fn func(Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryTx("write", float64(time.Since(start).Microseconds())/1000, err != nil)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: memory store closed", ErrUnavailable)
	}

	working := *s.st
	tx := &memTx{st: &working, writable: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = &working
	return nil
}

// View implements Store.View.
func (s *MemoryStore) View(ctx context.Context, fn func(Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryTx("read", float64(time.Since(start).Microseconds())/1000, err != nil)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("%w: memory store closed", ErrUnavailable)
	}
	return fn(&memTx{st: s.st})
}

// Close stops the metrics updater. Later transactions fail with
// ErrUnavailable.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *MemoryStore) updateMetrics() {
	s.mu.RLock()
	st := s.st
	s.mu.RUnlock()

	metrics.UpdateRepositoryRecords("users", len(st.users.rows))
	metrics.UpdateRepositoryRecords("hackathons", len(st.hackathons.rows))
	metrics.UpdateRepositoryRecords("teams", len(st.teams.rows))
	metrics.UpdateRepositoryRecords("memberships", len(st.memberships.rows))
	metrics.UpdateRepositoryRecords("documents", len(st.documents.rows))
	metrics.UpdateRepositoryRecords("invitations", len(st.invitations.rows))
	metrics.UpdateRepositoryRecords("votes", len(st.votes.rows))
	metrics.UpdateRepositoryRecords("evaluations", len(st.evaluations.rows))
}

// memTx reads from st and, when writable, clones a table the first time it
// is written.
type memTx struct {
	st       *state
	writable bool
	cloned   uint8
}

const (
	tblUsers uint8 = 1 << iota
	tblHackathons
	tblTeams
	tblMemberships
	tblDocuments
	tblInvitations
	tblVotes
	tblEvaluations
)

func (tx *memTx) write(tbl uint8) error {
	if !tx.writable {
		return ErrReadOnly
	}
	if tx.cloned&tbl != 0 {
		return nil
	}
	tx.cloned |= tbl
	switch tbl {
	case tblUsers:
		tx.st.users = tx.st.users.clone()
	case tblHackathons:
		tx.st.hackathons = tx.st.hackathons.clone()
	case tblTeams:
		tx.st.teams = tx.st.teams.clone()
	case tblMemberships:
		tx.st.memberships = tx.st.memberships.clone()
	case tblDocuments:
		tx.st.documents = tx.st.documents.clone()
	case tblInvitations:
		tx.st.invitations = tx.st.invitations.clone()
	case tblVotes:
		tx.st.votes = tx.st.votes.clone()
	case tblEvaluations:
		tx.st.evaluations = tx.st.evaluations.clone()
	}
	return nil
}

func notFound(what string, key ...string) error {
	return fmt.Errorf("%s %q: %w", what, key, ErrNotFound)
}

func exists(what string, key ...string) error {
	return fmt.Errorf("%s %q: %w", what, key, ErrAlreadyExists)
}

// Rankings and hashes are copied at the boundary so callers never share
// backing arrays with stored rows.
func copyHackathon(h model.Hackathon) model.Hackathon {
	h.Ranking = slices.Clone(h.Ranking)
	return h
}

func copyUser(u model.User) model.User {
	u.PasswordHash = slices.Clone(u.PasswordHash)
	return u
}

func (tx *memTx) GetUser(name string) (model.User, error) {
	u, ok := tx.st.users.get(name)
	if !ok {
		return model.User{}, notFound("user", name)
	}
	return copyUser(u), nil
}

func (tx *memTx) InsertUser(u model.User) error {
	if err := tx.write(tblUsers); err != nil {
		return err
	}
	if !tx.st.users.insert(u.Name, copyUser(u)) {
		return exists("user", u.Name)
	}
	return nil
}

func (tx *memTx) GetHackathon(title string) (model.Hackathon, error) {
	h, ok := tx.st.hackathons.get(title)
	if !ok {
		return model.Hackathon{}, notFound("hackathon", title)
	}
	return copyHackathon(h), nil
}

func (tx *memTx) InsertHackathon(h model.Hackathon) error {
	if err := tx.write(tblHackathons); err != nil {
		return err
	}
	if !tx.st.hackathons.insert(h.Title, copyHackathon(h)) {
		return exists("hackathon", h.Title)
	}
	return nil
}

func (tx *memTx) UpdateHackathon(h model.Hackathon) error {
	if err := tx.write(tblHackathons); err != nil {
		return err
	}
	if !tx.st.hackathons.replace(h.Title, copyHackathon(h)) {
		return notFound("hackathon", h.Title)
	}
	return nil
}

func (tx *memTx) ListHackathons() ([]model.Hackathon, error) {
	out := tx.st.hackathons.list(func(model.Hackathon) bool { return true })
	for i := range out {
		out[i] = copyHackathon(out[i])
	}
	return out, nil
}

func (tx *memTx) ListHackathonsByOrganizer(organizer string) ([]model.Hackathon, error) {
	out := tx.st.hackathons.list(func(h model.Hackathon) bool { return h.Organizer == organizer })
	for i := range out {
		out[i] = copyHackathon(out[i])
	}
	return out, nil
}

func (tx *memTx) GetTeam(hackathon, name string) (model.Team, error) {
	t, ok := tx.st.teams.get(pairKey{hackathon, name})
	if !ok {
		return model.Team{}, notFound("team", hackathon, name)
	}
	return t, nil
}

func (tx *memTx) InsertTeam(t model.Team) error {
	if err := tx.write(tblTeams); err != nil {
		return err
	}
	if !tx.st.teams.insert(pairKey{t.Hackathon, t.Name}, t) {
		return exists("team", t.Hackathon, t.Name)
	}
	return nil
}

func (tx *memTx) UpdateTeam(t model.Team) error {
	if err := tx.write(tblTeams); err != nil {
		return err
	}
	if !tx.st.teams.replace(pairKey{t.Hackathon, t.Name}, t) {
		return notFound("team", t.Hackathon, t.Name)
	}
	return nil
}

func (tx *memTx) ListTeams(hackathon string) ([]model.Team, error) {
	return tx.st.teams.list(func(t model.Team) bool { return t.Hackathon == hackathon }), nil
}

func (tx *memTx) GetMembership(hackathon, user string) (model.Membership, error) {
	m, ok := tx.st.memberships.get(pairKey{hackathon, user})
	if !ok {
		return model.Membership{}, notFound("membership", hackathon, user)
	}
	return m, nil
}

func (tx *memTx) InsertMembership(m model.Membership) error {
	if err := tx.write(tblMemberships); err != nil {
		return err
	}
	if !tx.st.memberships.insert(pairKey{m.Hackathon, m.User}, m) {
		return exists("membership", m.Hackathon, m.User)
	}
	return nil
}

func (tx *memTx) DeleteMembership(hackathon, user string) error {
	if err := tx.write(tblMemberships); err != nil {
		return err
	}
	if !tx.st.memberships.remove(pairKey{hackathon, user}) {
		return notFound("membership", hackathon, user)
	}
	return nil
}

func (tx *memTx) ListMembers(hackathon, team string) ([]model.Membership, error) {
	return tx.st.memberships.list(func(m model.Membership) bool {
		return m.Hackathon == hackathon && m.Team == team
	}), nil
}

func (tx *memTx) ListMembershipsByUser(user string) ([]model.Membership, error) {
	return tx.st.memberships.list(func(m model.Membership) bool { return m.User == user }), nil
}

func (tx *memTx) GetDocument(id string) (model.Document, error) {
	d, ok := tx.st.documents.get(id)
	if !ok {
		return model.Document{}, notFound("document", id)
	}
	return d, nil
}

func (tx *memTx) InsertDocument(d model.Document) error {
	if err := tx.write(tblDocuments); err != nil {
		return err
	}
	if !tx.st.documents.insert(d.ID, d) {
		return exists("document", d.ID)
	}
	return nil
}

func (tx *memTx) ListDocuments(hackathon, team string) ([]model.Document, error) {
	return tx.st.documents.list(func(d model.Document) bool {
		return d.Hackathon == hackathon && d.Team == team
	}), nil
}

func (tx *memTx) GetInvitation(hackathon, invitee string) (model.Invitation, error) {
	i, ok := tx.st.invitations.get(pairKey{hackathon, invitee})
	if !ok {
		return model.Invitation{}, notFound("invitation", hackathon, invitee)
	}
	return i, nil
}

func (tx *memTx) InsertInvitation(i model.Invitation) error {
	if err := tx.write(tblInvitations); err != nil {
		return err
	}
	if !tx.st.invitations.insert(pairKey{i.Hackathon, i.Invitee}, i) {
		return exists("invitation", i.Hackathon, i.Invitee)
	}
	return nil
}

func (tx *memTx) UpdateInvitation(i model.Invitation) error {
	if err := tx.write(tblInvitations); err != nil {
		return err
	}
	if !tx.st.invitations.replace(pairKey{i.Hackathon, i.Invitee}, i) {
		return notFound("invitation", i.Hackathon, i.Invitee)
	}
	return nil
}

func (tx *memTx) ListInvitations(hackathon string) ([]model.Invitation, error) {
	return tx.st.invitations.list(func(i model.Invitation) bool { return i.Hackathon == hackathon }), nil
}

func (tx *memTx) ListInvitationsByInvitee(invitee string) ([]model.Invitation, error) {
	return tx.st.invitations.list(func(i model.Invitation) bool { return i.Invitee == invitee }), nil
}

func (tx *memTx) InsertVote(v model.Vote) error {
	if err := tx.write(tblVotes); err != nil {
		return err
	}
	if !tx.st.votes.insert(voteKey{v.Hackathon, v.Team, v.Judge}, v) {
		return exists("vote", v.Hackathon, v.Team, v.Judge)
	}
	return nil
}

func (tx *memTx) ListVotes(hackathon string) ([]model.Vote, error) {
	return tx.st.votes.list(func(v model.Vote) bool { return v.Hackathon == hackathon }), nil
}

func (tx *memTx) InsertEvaluation(e model.Evaluation) error {
	if err := tx.write(tblEvaluations); err != nil {
		return err
	}
	if !tx.st.evaluations.insert(pairKey{e.DocumentID, e.Judge}, e) {
		return exists("evaluation", e.DocumentID, e.Judge)
	}
	return nil
}

func (tx *memTx) ListEvaluations(documentID string) ([]model.Evaluation, error) {
	return tx.st.evaluations.list(func(e model.Evaluation) bool { return e.DocumentID == documentID }), nil
}

var _ Store = (*MemoryStore)(nil)
