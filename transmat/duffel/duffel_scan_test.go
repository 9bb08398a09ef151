package duffel

import (
	"context"
	"io/ioutil"
	"sort"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/fs"
	"github.com/polydawn/duffel/fs/osfs"
	"github.com/polydawn/duffel/testutil"
	"github.com/polydawn/duffel/transmat/mixins/tests"
)

func TestScan(t *testing.T) {
	Convey("Scan reports the record census without writing", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("box.duffel")).String())
			Convey("a packed container scans to its census", func() {
				fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
				tests.PlaceFixture(osfs.New(fixturePath), tests.FixtureMultifile)
				_, err := Archive(context.Background(), fixturePath.String(), container, api.Monitor{})
				So(err, ShouldBeNil)
				report, err := Scan(context.Background(), container, api.Monitor{})
				So(err, ShouldBeNil)
				So(report.Outcome, ShouldEqual, api.Outcome_Scanned)
				So(report.Records, ShouldEqual, 2)
				So(report.Bytes, ShouldEqual, 5)
				// And nothing new appeared next to the container.
				names, err := osfs.New(tmpDir).ReadDirNames(fs.RelPath{})
				So(err, ShouldBeNil)
				sort.Strings(names)
				So(names, ShouldResemble, []string{"box.duffel", "fixture"})
			})
			Convey("a zero-byte container scans clean and empty", func() {
				So(ioutil.WriteFile(string(container), nil, 0644), ShouldBeNil)
				report, err := Scan(context.Background(), container, api.Monitor{})
				So(err, ShouldBeNil)
				So(report.Outcome, ShouldEqual, api.Outcome_Scanned)
				So(report.Records, ShouldEqual, 0)
				So(report.Bytes, ShouldEqual, 0)
			})
			Convey("an absent container errors", func() {
				_, err := Scan(context.Background(), container, api.Monitor{})
				So(err, errcat.ErrorShouldHaveCategory, api.ErrContainerAbsent)
			})
			Convey("a truncated container errors as corrupt", func() {
				fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
				tests.PlaceFixture(osfs.New(fixturePath), tests.FixtureMultifile)
				_, err := Archive(context.Background(), fixturePath.String(), container, api.Monitor{})
				So(err, ShouldBeNil)
				bs, err := ioutil.ReadFile(string(container))
				So(err, ShouldBeNil)
				So(ioutil.WriteFile(string(container), bs[:len(bs)-1], 0644), ShouldBeNil)
				_, err = Scan(context.Background(), container, api.Monitor{})
				So(err, errcat.ErrorShouldHaveCategory, api.ErrContainerCorrupt)
			})
		})
	})
}
