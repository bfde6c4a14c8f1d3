// Package service provides the hackathon core: the façade over event
// scheduling, teams, submissions, judging and ranking that adapters bind to.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/internal/domain/ranking"
	"github.com/okian/hackathon/internal/domain/schedule"
	apperrors "github.com/okian/hackathon/internal/errors"
	"github.com/okian/hackathon/pkg/logger"
	"github.com/okian/hackathon/pkg/metrics"
	"github.com/okian/hackathon/pkg/tracing"
)

// Service implements the hackathon operations on top of a repository.Store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store  repository.Store
	ranker ranking.Ranker

	// Configuration
	registrationGap       time.Duration
	scores                ranking.ScoreRange
	allowReinviteDeclined bool
	passwordCost          int
	clock                 func() time.Time
	newID                 func() string

	// State
	started bool

	logger logger.Logger
	tracer trace.Tracer
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence gateway. Without it Start opens a
// memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistrationGap sets the minimum time between registration end and
// event start.
func WithRegistrationGap(gap time.Duration) Option {
	return func(s *Service) {
		if gap >= 0 {
			s.registrationGap = gap
		}
	}
}

// WithScoreRange sets the inclusive bounds of a vote.
func WithScoreRange(min, max int) Option {
	return func(s *Service) {
		if min < max {
			s.scores = ranking.ScoreRange{Min: min, Max: max}
		}
	}
}

// WithReinviteDeclined lets an organizer re-send a declined invitation.
func WithReinviteDeclined(allow bool) Option {
	return func(s *Service) {
		s.allowReinviteDeclined = allow
	}
}

// WithPasswordCost sets the bcrypt cost for new credentials.
func WithPasswordCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.passwordCost = cost
		}
	}
}

// WithClock sets the clock used to stamp user registrations. Every
// temporal rule takes its instant from the caller instead.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithIDGenerator replaces the uuid generator for documents, invitations,
// votes and evaluations.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		registrationGap: schedule.DefaultGap,
		scores:          ranking.DefaultScoreRange,
		passwordCost:    bcrypt.DefaultCost,
		clock:           func() time.Time { return time.Now().UTC() },
		newID:           uuid.NewString,
		tracer:          tracing.Tracer(),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.ranker = ranking.NewMeanRanker(ranking.WithScoreRange(s.scores))

	return s
}

// Start prepares the service. It is idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using memory store")
	}

	s.started = true
	s.logger.Info(ctx, "hackathon service started",
		logger.Duration("registrationGap", s.registrationGap),
		logger.Int("minScore", s.scores.Min),
		logger.Int("maxScore", s.scores.Max),
		logger.Bool("allowReinviteDeclined", s.allowReinviteDeclined),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping hackathon service...")
	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "store close failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "hackathon service stopped")
}

// Started reports whether Start has run and Stop has not.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) gateway(op string) (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, apperrors.Unavailable(op, ErrNotStarted)
	}
	return s.store, nil
}

// update runs fn in a write transaction and classifies any failure.
func (s *Service) update(ctx context.Context, op string, fn func(repository.Tx) error) error {
	store, err := s.gateway(op)
	if err != nil {
		return err
	}
	return classify(op, store.Update(ctx, fn))
}

// view runs fn in a read transaction and classifies any failure.
func (s *Service) view(ctx context.Context, op string, fn func(repository.Tx) error) error {
	store, err := s.gateway(op)
	if err != nil {
		return err
	}
	return classify(op, store.View(ctx, fn))
}

// classify passes domain errors through and wraps everything else as
// storage unavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *apperrors.Error
	if errors.As(err, &de) {
		return err
	}
	return apperrors.Unavailable(op, err)
}

// operation opens a span for op and returns the function that closes it
// with the operation's outcome. Mutations log success at info, queries at
// debug.
func (s *Service) operation(ctx context.Context, op string, mutation bool, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "hackathon."+op, trace.WithAttributes(attrs...))
	log := s.log()

	return ctx, func(errp *error) {
		defer span.End()
		elapsed := time.Since(start)
		latencyMs := float64(elapsed.Microseconds()) / 1000

		fields := make([]logger.Field, 0, len(attrs)+3)
		fields = append(fields, logger.String("op", op), logger.Duration("elapsed", elapsed))
		for _, a := range attrs {
			fields = append(fields, logger.String(string(a.Key), a.Value.Emit()))
		}

		var err error
		if errp != nil {
			err = *errp
		}
		if err == nil {
			metrics.RecordOperation(op, "ok", latencyMs)
			span.SetStatus(codes.Ok, "")
			if mutation {
				log.Info(ctx, "operation succeeded", fields...)
			} else {
				log.Debug(ctx, "operation succeeded", fields...)
			}
			return
		}

		kind := apperrors.KindOf(err)
		metrics.RecordOperation(op, string(kind), latencyMs)
		metrics.RecordErrorByKind(string(kind))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		fields = append(fields, logger.String("kind", string(kind)), logger.Error(err))
		if kind == apperrors.KindStorageUnavailable || kind == apperrors.KindUnknown {
			metrics.RecordErrorByComponent("service", op)
			log.Error(ctx, "operation failed", fields...)
			return
		}
		log.Warn(ctx, "operation rejected", fields...)
	}
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.logger == nil {
		return logger.Get()
	}
	return s.logger
}

// at normalizes a caller instant to UTC microseconds, the precision every
// store keeps.
func at(now time.Time) time.Time {
	return now.UTC().Truncate(time.Microsecond)
}
