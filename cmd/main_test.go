package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/hackathon/internal/adapters/http/api"
	"github.com/okian/hackathon/internal/adapters/http/swagger"
	app "github.com/okian/hackathon/internal/app"
	"github.com/okian/hackathon/internal/config"
	"github.com/okian/hackathon/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("HACKATHON_ADDR", ":8080")
			_ = os.Setenv("HACKATHON_MAX_SCORE", "5")
			defer func() {
				_ = os.Unsetenv("HACKATHON_ADDR")
				_ = os.Unsetenv("HACKATHON_MAX_SCORE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxScore, convey.ShouldEqual, 5)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			})
		})

		convey.Convey("When the address is blanked out", func() {
			_ = os.Setenv("HACKATHON_ADDR", "")
			defer func() { _ = os.Unsetenv("HACKATHON_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given a default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		log := logger.Nop()

		convey.Convey("When the driver is memory", func() {
			store, err := openStore(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store.Close() }()

			convey.Convey("Then a usable store is returned", func() {
				convey.So(store, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the driver is sqlite", func() {
			cfg.StoreDriver = config.DriverSQLite
			cfg.StoreDSN = "file:maintest?mode=memory&cache=shared"
			store, err := openStore(ctx, cfg, log)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store.Close() }()

			convey.Convey("Then the service runs on it", func() {
				svc := app.New(app.WithLogger(log), app.WithStore(store), app.WithPasswordCost(4))
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
				_, err := svc.RegisterUser(ctx, "ada", "long enough")
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given the wired HTTP surface", t, func() {
		ctx := context.Background()
		cfg := config.New()

		svc := app.New(app.WithLogger(logger.Nop()))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		tokens, err := api.NewTokens(cfg.JWTSecret, cfg.TokenTTL())
		convey.So(err, convey.ShouldBeNil)

		mux := http.NewServeMux()
		swagger.Register(ctx, mux)
		api.NewServer(svc, tokens, api.WithLogger(logger.Nop())).Register(ctx, mux)

		convey.Convey("Then health, metrics and docs are all served", func() {
			for _, path := range []string{"/healthz", "/metrics", "/openapi.yaml", "/api-docs"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater's context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then it returns", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When updating system metrics directly", func() {
			convey.Convey("Then it should not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When logging settings are invalid", func() {
			cfg := config.New()
			cfg.LogFormat = "xml"
			cfg.LogLevel = "loud"

			convey.Convey("Then applyLogging falls back without panicking", func() {
				convey.So(func() { applyLogging(context.Background(), logger.Nop(), cfg) }, convey.ShouldNotPanic)
				_ = logger.SetLevelString("info")
			})
		})
	})
}
