package service_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/internal/adapters/repository/gormstore"
	service "github.com/okian/hackathon/internal/app"
	"github.com/okian/hackathon/internal/domain/model"
	"github.com/okian/hackathon/pkg/logger"
)

const password = "correct horse"

var day0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

// day returns midnight n days after day0.
func day(n int) time.Time { return day0.Add(time.Duration(n) * 24 * time.Hour) }

var dbSeq atomic.Int64

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type backend struct {
	name string
	open func(t *testing.T) repository.Store
}

func backends() []backend {
	return []backend{
		{name: "memory", open: func(*testing.T) repository.Store {
			return repository.NewMemoryStore(context.Background())
		}},
		{name: "sqlite", open: func(t *testing.T) repository.Store {
			t.Helper()
			dsn := fmt.Sprintf("file:service%d?mode=memory&cache=shared", dbSeq.Add(1))
			s, err := gormstore.Open(context.Background(), gormstore.DriverSQLite, dsn, gormstore.WithLogger(logger.Nop()))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return s
		}},
	}
}

// newService starts a service on store (memory when nil) with cheap
// password hashing.
func newService(t *testing.T, store repository.Store, opts ...service.Option) *service.Service {
	t.Helper()
	base := []service.Option{
		service.WithLogger(logger.Nop()),
		service.WithPasswordCost(bcrypt.MinCost),
		service.WithClock(func() time.Time { return day0 }),
	}
	if store != nil {
		base = append(base, service.WithStore(store))
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func mustRegister(t *testing.T, svc *service.Service, names ...string) {
	t.Helper()
	for _, n := range names {
		if _, err := svc.RegisterUser(context.Background(), n, password); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}
}

// schedule builds a hackathon whose registration opens on day0 and closes
// on regEnd, with the event running [start, end] in days.
func schedule(title, organizer string, regEnd, start, end int) service.HackathonInput {
	return service.HackathonInput{
		Title:             title,
		Organizer:         organizer,
		Venue:             "Main Hall",
		RegistrationStart: day(0),
		RegistrationEnd:   day(regEnd),
		EventStart:        day(start),
		EventEnd:          day(end),
		MaxParticipants:   20,
		MaxTeamSize:       3,
	}
}

func mustCreate(t *testing.T, svc *service.Service, in service.HackathonInput) model.Hackathon {
	t.Helper()
	h, err := svc.CreateHackathon(context.Background(), in, day(0))
	if err != nil {
		t.Fatalf("create %s: %v", in.Title, err)
	}
	return h
}

func mustJudge(t *testing.T, svc *service.Service, title, organizer string, judges ...string) {
	t.Helper()
	ctx := context.Background()
	for _, j := range judges {
		if _, err := svc.Invite(ctx, organizer, j, title, day(0)); err != nil {
			t.Fatalf("invite %s: %v", j, err)
		}
		if _, err := svc.Accept(ctx, j, title, day(0)); err != nil {
			t.Fatalf("accept %s: %v", j, err)
		}
	}
}

// brokenTeamsStore wraps a Store so that team lookups fail with err.
type brokenTeamsStore struct {
	repository.Store
	err error
}

func (s brokenTeamsStore) Update(ctx context.Context, fn func(repository.Tx) error) error {
	return s.Store.Update(ctx, func(tx repository.Tx) error { return fn(brokenTeamsTx{Tx: tx, err: s.err}) })
}

func (s brokenTeamsStore) View(ctx context.Context, fn func(repository.Tx) error) error {
	return s.Store.View(ctx, func(tx repository.Tx) error { return fn(brokenTeamsTx{Tx: tx, err: s.err}) })
}

type brokenTeamsTx struct {
	repository.Tx
	err error
}

func (tx brokenTeamsTx) GetTeam(string, string) (model.Team, error) {
	return model.Team{}, tx.err
}
