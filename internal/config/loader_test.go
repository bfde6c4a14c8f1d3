package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/hackathon/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
				convey.So(cfg.MaxScore, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("HACKATHON_ADDR", ":8080")
			_ = os.Setenv("HACKATHON_STORE_DRIVER", "sqlite")
			_ = os.Setenv("HACKATHON_STORE_DSN", "file:hackathon.db")
			_ = os.Setenv("HACKATHON_REGISTRATION_GAP_HOURS", "72")
			_ = os.Setenv("HACKATHON_ALLOW_REINVITE_DECLINED", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.StoreDSN, convey.ShouldEqual, "file:hackathon.db")
				convey.So(cfg.RegistrationGapHours, convey.ShouldEqual, 72)
				convey.So(cfg.AllowReinviteDeclined, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a zero registration gap is opted into from the environment", func() {
			_ = os.Setenv("HACKATHON_REGISTRATION_GAP_HOURS", "0")
			_ = os.Setenv("HACKATHON_SHORT_REGISTRATION_GAP", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it loads with the floor lifted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.RegistrationGapHours, convey.ShouldEqual, 0)
				convey.So(cfg.ShortRegistrationGap, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a zero registration gap is set without opting in", func() {
			_ = os.Setenv("HACKATHON_REGISTRATION_GAP_HOURS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
min_score: 1
max_score: 5
log_format: json
`)
			_ = os.Setenv("HACKATHON_CONFIG", tmpFile)
			_ = os.Setenv("HACKATHON_MAX_SCORE", "7")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.MinScore, convey.ShouldEqual, 1)
				convey.So(cfg.MaxScore, convey.ShouldEqual, 7)
				convey.So(cfg.TokenTTLMinutes, convey.ShouldEqual, 60)
			})
		})

		convey.Convey("When a dotenv file is named", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "test.env")
			err := os.WriteFile(path, []byte("HACKATHON_ADDR=:7070\nHACKATHON_JWT_SECRET=from-dotenv\n"), 0o600)
			convey.So(err, convey.ShouldBeNil)
			_ = os.Setenv("HACKATHON_ENV_FILE", path)
			_ = os.Setenv("HACKATHON_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values fill in without overriding the environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.JWTSecret, convey.ShouldEqual, "from-dotenv")
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When the dotenv file is missing", func() {
			_ = os.Setenv("HACKATHON_ENV_FILE", "/non/existent/.env")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("HACKATHON_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("HACKATHON_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("HACKATHON_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the score bounds are inverted", func() {
			_ = os.Setenv("HACKATHON_MIN_SCORE", "9")
			_ = os.Setenv("HACKATHON_MAX_SCORE", "3")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("HACKATHON_MAX_SCORE", "ten")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"HACKATHON_CONFIG",
		"HACKATHON_ENV_FILE",
		"HACKATHON_ADDR",
		"HACKATHON_STORE_DRIVER",
		"HACKATHON_STORE_DSN",
		"HACKATHON_REGISTRATION_GAP_HOURS",
		"HACKATHON_SHORT_REGISTRATION_GAP",
		"HACKATHON_ALLOW_REINVITE_DECLINED",
		"HACKATHON_MIN_SCORE",
		"HACKATHON_MAX_SCORE",
		"HACKATHON_JWT_SECRET",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hackathon.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
