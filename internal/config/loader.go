package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"
)

const (
	envPrefix  = "HACKATHON_"
	envFile    = "HACKATHON_ENV_FILE"
	envConfig  = "HACKATHON_CONFIG"
	defaultEnv = ".env"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if HACKATHON_CONFIG is set
//  3. env (prefix HACKATHON_), after a dotenv file is merged into the
//     process environment
func Load(_ context.Context) (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// HACKATHON_STORE_DSN -> store_dsn. Underscores are kept to match the
	// flat koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotenv merges HACKATHON_ENV_FILE, or ./.env when present, into the
// environment. Variables already set win.
func loadDotenv() error {
	path := os.Getenv(envFile)
	if path == "" {
		if _, err := os.Stat(defaultEnv); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = defaultEnv
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != DriverMemory && c.StoreDriver != DriverSQLite && c.StoreDriver != DriverPostgres:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDriver != DriverMemory && c.StoreDSN == "":
		return fmt.Errorf("%w: store_dsn is required for %s", ErrInvalidConfig, c.StoreDriver)
	case c.MinScore >= c.MaxScore:
		return fmt.Errorf("%w: min_score must be below max_score", ErrInvalidConfig)
	case c.RegistrationGapHours < 0:
		return fmt.Errorf("%w: registration_gap_hours must not be negative", ErrInvalidConfig)
	case c.RegistrationGapHours < MinRegistrationGapHours && !c.ShortRegistrationGap:
		return fmt.Errorf("%w: registration_gap_hours below %d requires short_registration_gap", ErrInvalidConfig, MinRegistrationGapHours)
	case c.PasswordCost < bcrypt.MinCost || c.PasswordCost > bcrypt.MaxCost:
		return fmt.Errorf("%w: password_cost must be within [%d, %d]", ErrInvalidConfig, bcrypt.MinCost, bcrypt.MaxCost)
	case c.JWTSecret == "":
		return fmt.Errorf("%w: jwt_secret must not be empty", ErrInvalidConfig)
	case c.TokenTTLMinutes <= 0:
		return fmt.Errorf("%w: token_ttl_minutes must be positive", ErrInvalidConfig)
	}
	return nil
}
