// Package config defines service configuration and how it is loaded.
package config

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MinRegistrationGapHours is the smallest registration gap a production
// configuration may set.
const MinRegistrationGapHours = 48

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver picks the persistence gateway: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is handed to the sqlite or postgres driver.
	StoreDSN string `koanf:"store_dsn"`

	// RegistrationGapHours is the minimum time between registration end
	// and event start. Values below MinRegistrationGapHours are accepted
	// only with ShortRegistrationGap, for local runs and the simulator.
	RegistrationGapHours int `koanf:"registration_gap_hours"`

	// ShortRegistrationGap lifts the MinRegistrationGapHours floor.
	ShortRegistrationGap bool `koanf:"short_registration_gap"`

	// MinScore and MaxScore bound a single vote, inclusive.
	MinScore int `koanf:"min_score"`
	MaxScore int `koanf:"max_score"`

	// AllowReinviteDeclined lets organizers re-send declined invitations.
	AllowReinviteDeclined bool `koanf:"allow_reinvite_declined"`

	// PasswordCost is the bcrypt work factor.
	PasswordCost int `koanf:"password_cost"`

	// JWTSecret signs bearer tokens.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTLMinutes is the lifetime of an issued token.
	TokenTTLMinutes int `koanf:"token_ttl_minutes"`

	// OTELEndpoint enables trace export when set, e.g. "localhost:4318".
	OTELEndpoint string `koanf:"otel_endpoint"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		StoreDriver:          DriverMemory,
		RegistrationGapHours: MinRegistrationGapHours,
		MinScore:             0,
		MaxScore:             10,
		PasswordCost:         bcrypt.DefaultCost,
		JWTSecret:            "change-me",
		TokenTTLMinutes:      60,
	}
}

// RegistrationGap returns RegistrationGapHours as a duration.
func (c *Config) RegistrationGap() time.Duration {
	return time.Duration(c.RegistrationGapHours) * time.Hour
}

// TokenTTL returns TokenTTLMinutes as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}
