package duffel

import (
	"context"
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

func TestArchive(t *testing.T) {
	Convey("Spec compliance: Archive", t, func() {
		tests.CheckIdempotence(Archive)
	})
}

func TestArchiveEdgeCases(t *testing.T) {
	Convey("Archive edge cases", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("box.duffel")).String())
			Convey("a missing source dir errors", func() {
				_, err := Archive(context.Background(), tmpDir.Join(fs.MustRelPath("nope")).String(), container, api.Monitor{})
				So(err, errcat.ErrorShouldHaveCategory, api.ErrSourceUnreadable)
			})
			Convey("a container addr in a missing dir errors", func() {
				fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
				tests.PlaceFixture(osfs.New(fixturePath), tests.FixtureAlpha)
				badContainer := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("no-such-dir/box.duffel")).String())
				_, err := Archive(context.Background(), fixturePath.String(), badContainer, api.Monitor{})
				So(err, errcat.ErrorShouldHaveCategory, api.ErrContainerUnavailable)
			})
			Convey("a cancelled context aborts", func() {
				fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
				tests.PlaceFixture(osfs.New(fixturePath), tests.FixtureAlpha)
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				_, err := Archive(ctx, fixturePath.String(), container, api.Monitor{})
				So(err, errcat.ErrorShouldHaveCategory, api.ErrCancelled)
			})
		})
	})
}

func TestArchiveSkipsUnreadable(t *testing.T) {
	Convey("Archive passes over unreadable source files", t,
		testutil.Requires(testutil.RequiresPermDenials, func() {
			testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
				fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
				tests.PlaceFixture(osfs.New(fixturePath), tests.FixtureMultifile)
				So(os.Chmod(fixturePath.Join(fs.MustRelPath("a.txt")).String(), 0), ShouldBeNil)
				container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("box.duffel")).String())
				mon, collect := tests.CollectingMonitor()
				report, err := Archive(context.Background(), fixturePath.String(), container, mon)
				So(err, ShouldBeNil)
				So(report.Outcome, ShouldEqual, api.Outcome_Packed)
				So(report.Records, ShouldEqual, 1)
				So(report.Skips, ShouldEqual, 1)
				// The pass-over announced itself on the monitor.
				logs := tests.LogEvents(collect())
				So(logs, ShouldHaveLength, 1)
				So(logs[0].Level, ShouldEqual, api.LogWarn)
				So(logs[0].Msg, ShouldContainSubstring, "unreadable")
			})
		}),
	)
}
