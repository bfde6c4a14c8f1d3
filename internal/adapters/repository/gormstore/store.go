// Package gormstore implements repository.Store on gorm, with PostgreSQL for
// deployments and SQLite for local runs and tests.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/pkg/logger"
	"github.com/okian/hackathon/pkg/metrics"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	defaultMaxOpenConns    = 20
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = time.Hour
	defaultSlowQuery       = 200 * time.Millisecond
)

// ErrUnknownDriver is returned by Open for drivers other than postgres and sqlite.
var ErrUnknownDriver = errors.New("unknown store driver")

// Store is a gorm-backed repository.Store.
type Store struct {
	db     *gorm.DB
	driver string
	log    logger.Logger
	closed atomic.Bool

	maxOpenConns int
	slowQuery    time.Duration
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger routes gorm's query log through l.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxOpenConns caps the postgres connection pool. SQLite always uses a
// single connection.
func WithMaxOpenConns(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}

// WithSlowQueryThreshold sets the duration above which queries log at warn.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.slowQuery = d
		}
	}
}

// Open connects to the database, configures the pool and migrates the schema.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	s := &Store{
		driver:       driver,
		log:          logger.Get().Named("gormstore"),
		maxOpenConns: defaultMaxOpenConns,
		slowQuery:    defaultSlowQuery,
	}
	for _, opt := range opts {
		opt(s)
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         &queryLogger{log: s.log, slow: s.slowQuery, level: gormlogger.Warn},
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", repository.ErrUnavailable, driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	if driver == DriverSQLite {
		// SQLite has no row locks; one connection serializes transactions.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(s.maxOpenConns)
		sqlDB.SetMaxIdleConns(defaultMaxIdleConns)
		sqlDB.SetConnMaxLifetime(defaultConnMaxLifetime)
	}

	s.db = db
	if err := s.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	s.log.Info(ctx, "store opened", logger.String("driver", driver))
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(allRows()...); err != nil {
		return fmt.Errorf("%w: migrate: %v", repository.ErrUnavailable, err)
	}
	return nil
}

// Reset drops and recreates every table.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Migrator().DropTable(allRows()...); err != nil {
		return fmt.Errorf("%w: drop: %v", repository.ErrUnavailable, err)
	}
	return s.migrate(ctx)
}

// Update implements repository.Store.
func (s *Store) Update(ctx context.Context, fn func(repository.Tx) error) error {
	return s.run(ctx, "write", true, fn)
}

// View implements repository.Store.
func (s *Store) View(ctx context.Context, fn func(repository.Tx) error) error {
	return s.run(ctx, "read", false, fn)
}

func (s *Store) run(ctx context.Context, mode string, writable bool, fn func(repository.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return fmt.Errorf("%w: store closed", repository.ErrUnavailable)
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryTx(mode, float64(time.Since(start).Microseconds())/1000, err != nil)
	}()

	var fnErr error
	err = s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		fnErr = fn(&tx{db: db, writable: writable, lock: writable && s.driver == DriverPostgres})
		return fnErr
	})
	if err != nil && fnErr == nil {
		// begin or commit failed
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s transaction: %v", repository.ErrUnavailable, mode, err)
	}
	return err
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// classify maps driver errors onto the repository sentinels.
func classify(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%s: %w", what, repository.ErrAlreadyExists)
	default:
		return fmt.Errorf("%w: %s: %v", repository.ErrUnavailable, what, err)
	}
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// queryLogger adapts gorm's logger to ours. Statements log at debug, slow
// ones at warn, failures other than not-found at error.
type queryLogger struct {
	log   logger.Logger
	slow  time.Duration
	level gormlogger.LogLevel
}

func (l *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	out := *l
	out.level = level
	return &out
}

func (l *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.log.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.log.Error(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []logger.Field{
		logger.String("sql", sql),
		logger.Int("rows", int(rows)),
		logger.Duration("elapsed", elapsed),
	}
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, gorm.ErrDuplicatedKey) && !isUniqueViolation(err):
		l.log.Error(ctx, "query failed", append(fields, logger.Error(err))...)
	case l.slow > 0 && elapsed > l.slow:
		l.log.Warn(ctx, "slow query", fields...)
	default:
		l.log.Debug(ctx, "query", fields...)
	}
}

var _ repository.Store = (*Store)(nil)
