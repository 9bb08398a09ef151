package duffel

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/fs"
	"github.com/polydawn/duffel/fs/osfs"
	"github.com/polydawn/duffel/testutil"
	"github.com/polydawn/duffel/transmat/mixins/tests"
)

func TestCheck(t *testing.T) {
	Convey("Spec compliance: Check", t, func() {
		tests.CheckCorruptionDetection(Archive, Check)
		tests.CheckBinarySafety(Archive, Check)
	})
}

func TestCheckEdgeCases(t *testing.T) {
	Convey("Check edge cases", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
			tests.PlaceFixture(osfs.New(fixturePath), tests.FixtureMultifile)
			container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("box.duffel")).String())

			Convey("an absent container answers mismatched, not an error", func() {
				mon, collect := tests.CollectingMonitor()
				report, err := Check(context.Background(), fixturePath.String(), container, mon)
				So(err, ShouldBeNil)
				So(report.Outcome, ShouldEqual, api.Outcome_Mismatched)
				// The reason lands on the monitor as an info log.
				logs := tests.LogEvents(collect())
				So(logs, ShouldHaveLength, 1)
				So(logs[0].Level, ShouldEqual, api.LogInfo)
				So(logs[0].Msg, ShouldContainSubstring, "does not exist")
			})
			Convey("an unsupported addr scheme errors", func() {
				_, err := Check(context.Background(), fixturePath.String(), api.ContainerAddr("gopher://example.net/box.duffel"), api.Monitor{})
				So(err, errcat.ErrorShouldHaveCategory, api.ErrUsage)
			})
			Convey("with the fixture archived...", func() {
				_, err := Archive(context.Background(), fixturePath.String(), container, api.Monitor{})
				So(err, ShouldBeNil)

				Convey("a garbage container answers mismatched, not an error", func() {
					So(ioutil.WriteFile(string(container), []byte("no record framing here"), 0644), ShouldBeNil)
					report, err := Check(context.Background(), fixturePath.String(), container, api.Monitor{})
					So(err, ShouldBeNil)
					So(report.Outcome, ShouldEqual, api.Outcome_Mismatched)
				})
				Convey("a source file turned dir answers mismatched", func() {
					aPath := fixturePath.Join(fs.MustRelPath("a.txt")).String()
					So(os.Remove(aPath), ShouldBeNil)
					So(os.Mkdir(aPath, 0755), ShouldBeNil)
					report, err := Check(context.Background(), fixturePath.String(), container, api.Monitor{})
					So(err, ShouldBeNil)
					So(report.Outcome, ShouldEqual, api.Outcome_Mismatched)
				})
				Convey("a cancelled context aborts", func() {
					ctx, cancel := context.WithCancel(context.Background())
					cancel()
					_, err := Check(ctx, fixturePath.String(), container, api.Monitor{})
					So(err, errcat.ErrorShouldHaveCategory, api.ErrCancelled)
				})
			})
		})
	})
}
