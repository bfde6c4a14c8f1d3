package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/hackathon/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.RegistrationGap(), convey.ShouldEqual, 48*time.Hour)
			convey.So(cfg.MinScore, convey.ShouldEqual, 0)
			convey.So(cfg.MaxScore, convey.ShouldEqual, 10)
			convey.So(cfg.AllowReinviteDeclined, convey.ShouldBeFalse)
			convey.So(cfg.TokenTTL(), convey.ShouldEqual, time.Hour)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given configs that contradict themselves", t, func() {
		mutations := []func(c *config.Config){
			func(c *config.Config) { c.StoreDriver = "mysql" },
			func(c *config.Config) { c.StoreDriver = config.DriverPostgres },
			func(c *config.Config) { c.MinScore, c.MaxScore = 10, 10 },
			func(c *config.Config) { c.RegistrationGapHours = -1 },
			func(c *config.Config) { c.RegistrationGapHours = 47 },
			func(c *config.Config) { c.RegistrationGapHours, c.ShortRegistrationGap = -1, true },
			func(c *config.Config) { c.PasswordCost = 1 },
			func(c *config.Config) { c.JWTSecret = "" },
			func(c *config.Config) { c.TokenTTLMinutes = 0 },
			func(c *config.Config) { c.Addr = "" },
		}

		convey.Convey("Then each is rejected as invalid", func() {
			for _, mutate := range mutations {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})

	convey.Convey("Given a registration gap below two days", t, func() {
		cfg := config.New()
		cfg.RegistrationGapHours = 0

		convey.Convey("When the short gap is not opted into", func() {
			convey.Convey("Then validation refuses it", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the short gap is opted into", func() {
			cfg.ShortRegistrationGap = true

			convey.Convey("Then it is accepted", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
				convey.So(cfg.RegistrationGap(), convey.ShouldEqual, time.Duration(0))
			})
		})
	})
}
