package config_test

import (
	"testing"

	"github.com/okian/kairosync/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, config.FormatText)
			convey.So(cfg.TickSpec, convey.ShouldEqual, "@every 1s")
			convey.So(cfg.StepHeight, convey.ShouldEqual, 160)
			convey.So(cfg.SnapMinutes, convey.ShouldEqual, 15)
			convey.So(cfg.MaxDayOffset, convey.ShouldEqual, 3)
			convey.So(cfg.Metrics.Enabled, convey.ShouldBeTrue)
			convey.So(cfg.Metrics.Namespace, convey.ShouldEqual, "kairosync")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then it should seed both users", func() {
			convey.So(cfg.Users.Local.ID, convey.ShouldEqual, "u1")
			convey.So(cfg.Users.Local.Location, convey.ShouldEqual, "Taipei")
			convey.So(cfg.Users.Local.TimezoneOffset, convey.ShouldEqual, 8)
			convey.So(cfg.Users.Remote.ID, convey.ShouldEqual, "u2")
			convey.So(cfg.Users.Remote.Location, convey.ShouldEqual, "London")
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the users share an id", func() {
			cfg.Users.Remote.ID = cfg.Users.Local.ID
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("When a busy hour is out of range", func() {
			cfg.Users.Local.BusySlots = []int{9, 24}
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("When the offset is beyond +14", func() {
			cfg.Users.Remote.TimezoneOffset = 15
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("When snap minutes is zero", func() {
			cfg.SnapMinutes = 0
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)
		})

		convey.Convey("When enabled metrics have no namespace", func() {
			cfg.Metrics.Namespace = ""
			convey.So(cfg.Validate(), convey.ShouldWrap, config.ErrInvalidConfig)

			convey.Convey("Then disabling metrics makes it valid again", func() {
				cfg.Metrics.Enabled = false
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}
