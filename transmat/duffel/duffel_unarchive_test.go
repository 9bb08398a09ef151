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

func TestUnarchive(t *testing.T) {
	Convey("Spec compliance: Unarchive", t, func() {
		tests.CheckRoundTrip(Archive, Unarchive)
		tests.CheckNameCollision(Archive, Unarchive)
		tests.CheckEmpty(Archive, Unarchive, Check)
	})
}

func TestUnarchiveEdgeCases(t *testing.T) {
	Convey("Unarchive edge cases", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			unpackPath := tmpDir.Join(fs.MustRelPath("unpack"))
			Convey("an absent container errors", func() {
				container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("no-such.duffel")).String())
				_, err := Unarchive(context.Background(), container, unpackPath.String(), api.Monitor{})
				So(err, errcat.ErrorShouldHaveCategory, api.ErrContainerAbsent)
			})
			Convey("with an archived fixture on hand...", func() {
				fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
				tests.PlaceFixture(osfs.New(fixturePath), tests.FixtureMultifile)
				container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("box.duffel")).String())
				_, err := Archive(context.Background(), fixturePath.String(), container, api.Monitor{})
				So(err, ShouldBeNil)

				Convey("a deeply nested target dir is created on demand", func() {
					deepPath := tmpDir.Join(fs.MustRelPath("u/v/w"))
					report, err := Unarchive(context.Background(), container, deepPath.String(), api.Monitor{})
					So(err, ShouldBeNil)
					So(report.Records, ShouldEqual, 2)
					stat := testutil.ShouldStat(osfs.New(deepPath), fs.MustRelPath("a.txt"))
					So(stat.Type, ShouldEqual, fs.Type_File)
				})
				Convey("a truncated container errors as corrupt", func() {
					bs, err := ioutil.ReadFile(string(container))
					So(err, ShouldBeNil)
					So(ioutil.WriteFile(string(container), bs[:len(bs)-1], 0644), ShouldBeNil)
					_, err = Unarchive(context.Background(), container, unpackPath.String(), api.Monitor{})
					So(err, errcat.ErrorShouldHaveCategory, api.ErrContainerCorrupt)
				})
				Convey("a cancelled context aborts", func() {
					ctx, cancel := context.WithCancel(context.Background())
					cancel()
					_, err := Unarchive(ctx, container, unpackPath.String(), api.Monitor{})
					So(err, errcat.ErrorShouldHaveCategory, api.ErrCancelled)
				})
			})
		})
	})
}

func TestUnarchiveSkipsUnplaceable(t *testing.T) {
	Convey("Unarchive passes over unplaceable records without losing framing", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
			tests.PlaceFixture(osfs.New(fixturePath), tests.FixtureMultifile)
			container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("box.duffel")).String())
			_, err := Archive(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)

			// Occupy the first record's target name with a dir, which a
			//  truncating file create can't displace.  The payload behind
			//  it must still be drained, or the b.bin record would be
			//  read misframed.
			unpackPath := tmpDir.Join(fs.MustRelPath("unpack"))
			So(os.MkdirAll(unpackPath.Join(fs.MustRelPath("a.txt")).String(), 0755), ShouldBeNil)

			mon, collect := tests.CollectingMonitor()
			report, err := Unarchive(context.Background(), container, unpackPath.String(), mon)
			So(err, ShouldBeNil)
			So(report.Outcome, ShouldEqual, api.Outcome_Unpacked)
			So(report.Records, ShouldEqual, 1)
			So(report.Skips, ShouldEqual, 1)

			// The record after the skipped one came through intact.
			bs, err := ioutil.ReadFile(unpackPath.Join(fs.MustRelPath("b.bin")).String())
			So(err, ShouldBeNil)
			So(bs, ShouldResemble, []byte{0x00, 0x01, 0x02})

			// And the pass-over announced itself on the monitor.
			logs := tests.LogEvents(collect())
			So(logs, ShouldHaveLength, 1)
			So(logs[0].Level, ShouldEqual, api.LogWarn)
			So(logs[0].Msg, ShouldContainSubstring, "uncreatable")
		})
	})
}

func TestEndToEndScenario(t *testing.T) {
	Convey("The full tour: archive, check, unarchive, compare", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
			tests.PlaceFixture(osfs.New(fixturePath), tests.FixtureMultifile)
			container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("out.arc")).String())

			report, err := Archive(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)
			So(report.Outcome, ShouldEqual, api.Outcome_Packed)

			report, err = Check(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)
			So(report.Outcome, ShouldEqual, api.Outcome_Matched)

			unpackPath := tmpDir.Join(fs.MustRelPath("D2"))
			report, err = Unarchive(context.Background(), container, unpackPath.String(), api.Monitor{})
			So(err, ShouldBeNil)
			So(report.Outcome, ShouldEqual, api.Outcome_Unpacked)

			bs, err := ioutil.ReadFile(unpackPath.Join(fs.MustRelPath("a.txt")).String())
			So(err, ShouldBeNil)
			So(string(bs), ShouldEqual, "hi")
			bs, err = ioutil.ReadFile(unpackPath.Join(fs.MustRelPath("b.bin")).String())
			So(err, ShouldBeNil)
			So(bs, ShouldResemble, []byte{0x00, 0x01, 0x02})
		})
	})
}
