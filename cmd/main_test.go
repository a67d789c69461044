package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/kairosync/internal/adapters/http/api"
	"github.com/okian/kairosync/internal/adapters/http/swagger"
	"github.com/okian/kairosync/internal/config"
	"github.com/okian/kairosync/internal/domain/cities"
	"github.com/okian/kairosync/pkg/logger"
	"github.com/okian/kairosync/pkg/metrics"
)

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--no-color"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands(t *testing.T) {
	_ = os.Unsetenv(config.EnvConfigFile)

	convey.Convey("Given the kairosync CLI with the default users", t, func() {
		convey.Convey("When a minute is free for both", func() {
			out, err := execute("golden", "--at", "13:00")

			convey.Convey("Then it is reported golden with both local times", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "golden window")
				convey.So(out, convey.ShouldContainSubstring, "21:00")
				convey.So(out, convey.ShouldContainSubstring, "13:00")
			})
		})

		convey.Convey("When the remote user is busy", func() {
			out, err := execute("golden", "--at", "12:00")

			convey.Convey("Then it is not golden", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "not golden")
			})
		})

		convey.Convey("When the golden flag is malformed", func() {
			_, err := execute("golden", "--at", "25:00")

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "HH:MM")
			})
		})

		convey.Convey("When searching for the next window from a busy minute", func() {
			out, err := execute("next", "--from", "12:00")

			convey.Convey("Then the scan lands on the next half hour that works", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "utc: 13:00")
			})
		})

		convey.Convey("When converting a local time", func() {
			out, err := execute("convert", "21:00", "--role", "local")

			convey.Convey("Then the UTC and remote times are shown", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "utc: 13:00")
				convey.So(out, convey.ShouldContainSubstring, "remote: 13:00")
			})
		})

		convey.Convey("When converting for an unknown role", func() {
			_, err := execute("convert", "21:00", "--role", "nobody")

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When searching cities", func() {
			out, err := execute("cities", "lon")

			convey.Convey("Then matches are listed with offsets", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "London, UK")
				convey.So(out, convey.ShouldContainSubstring, "UTC+0")
			})
		})

		convey.Convey("When listing cities without a query", func() {
			out, err := execute("cities")

			convey.Convey("Then the whole table is listed with a total", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "London, UK")
				convey.So(out, convey.ShouldContainSubstring, fmt.Sprintf("%d cities", cities.Default().Len()))
			})
		})

		convey.Convey("When listing sleep slots across midnight", func() {
			out, err := execute("sleep-slots", "22", "2")

			convey.Convey("Then the end hour is excluded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "[22, 23, 0, 1] (4 hours)")
			})
		})

		convey.Convey("When sleep slots get a non-numeric hour", func() {
			_, err := execute("sleep-slots", "ten", "2")

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When showing clocks at a fixed minute", func() {
			out, err := execute("clocks", "--at", "13:00")

			convey.Convey("Then both users are rendered", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Alex")
				convey.So(out, convey.ShouldContainSubstring, "Jamie")
				convey.So(out, convey.ShouldContainSubstring, "golden window")
			})
		})

		convey.Convey("When a user's location names a country too", func() {
			_ = os.Setenv("KAIRO_USERS__REMOTE__LOCATION", "Lisbon, Portugal")
			convey.Reset(func() { _ = os.Unsetenv("KAIRO_USERS__REMOTE__LOCATION") })
			out, err := execute("clocks", "--at", "13:00")

			convey.Convey("Then the clock is headed by the city alone", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "Jamie (Lisbon)")
				convey.So(out, convey.ShouldNotContainSubstring, "Portugal")
			})
		})
	})
}

func TestServiceWiring(t *testing.T) {
	_ = os.Unsetenv(config.EnvConfigFile)

	convey.Convey("Given a loaded configuration", t, func() {
		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the service is built and mounted on a router", func() {
			svc, err := buildService(cfg, logger.Discard())
			convey.So(err, convey.ShouldBeNil)

			r := chi.NewRouter()
			api.NewServer(svc).Register(context.Background(), r)
			swagger.Register(context.Background(), r)

			convey.Convey("Then the API and the docs are both served", func() {
				for _, path := range []string{"/healthz", "/state", "/api-docs", "/openapi.yaml"} {
					rec := httptest.NewRecorder()
					r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
					convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				}
			})
		})

		convey.Convey("When the cities file does not exist", func() {
			cfg.CitiesFile = "/nonexistent/cities.yaml"
			_, err := buildService(cfg, logger.Discard())

			convey.Convey("Then building fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestSetupMetrics(t *testing.T) {
	convey.Convey("Given a config naming an instance", t, func() {
		cfg := config.New()
		cfg.Metrics.Namespace = "kairotest"
		cfg.Metrics.Instance = "ci"
		setupMetrics(cfg)
		convey.Reset(func() { setupMetrics(config.New()) })

		convey.Convey("When the metrics endpoint is scraped", func() {
			metrics.RecordLiveTick()
			svc, err := buildService(cfg, logger.Discard())
			convey.So(err, convey.ShouldBeNil)
			r := chi.NewRouter()
			api.NewServer(svc).Register(context.Background(), r)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			convey.Convey("Then series carry the namespace and instance label", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, `kairotest_sync_live_ticks_total{instance="ci"} 1`)
			})
		})
	})
}
