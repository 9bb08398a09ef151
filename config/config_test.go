package config

import (
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func withEnv(key, value string, fn func()) {
	prev, had := os.LookupEnv(key)
	os.Setenv(key, value)
	defer func() {
		if had {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	}()
	fn()
}

func TestGetDefaultFormat(t *testing.T) {
	Convey("GetDefaultFormat", t, func() {
		Convey("recognized values pass through", func() {
			withEnv("DUFFEL_FORMAT", "json", func() {
				So(GetDefaultFormat(), ShouldEqual, "json")
			})
			withEnv("DUFFEL_FORMAT", "dumb", func() {
				So(GetDefaultFormat(), ShouldEqual, "dumb")
			})
		})
		Convey("anything else falls back to dumb", func() {
			withEnv("DUFFEL_FORMAT", "yaml", func() {
				So(GetDefaultFormat(), ShouldEqual, "dumb")
			})
			withEnv("DUFFEL_FORMAT", "", func() {
				So(GetDefaultFormat(), ShouldEqual, "dumb")
			})
		})
	})
}

func TestGetProgressRate(t *testing.T) {
	Convey("GetProgressRate", t, func() {
		Convey("parsable durations pass through", func() {
			withEnv("DUFFEL_PROGRESS_RATE", "250ms", func() {
				So(GetProgressRate(), ShouldEqual, 250*time.Millisecond)
			})
		})
		Convey("garbage and nonpositive values fall back to one second", func() {
			withEnv("DUFFEL_PROGRESS_RATE", "often", func() {
				So(GetProgressRate(), ShouldEqual, time.Second)
			})
			withEnv("DUFFEL_PROGRESS_RATE", "-3s", func() {
				So(GetProgressRate(), ShouldEqual, time.Second)
			})
			withEnv("DUFFEL_PROGRESS_RATE", "", func() {
				So(GetProgressRate(), ShouldEqual, time.Second)
			})
		})
	})
}
