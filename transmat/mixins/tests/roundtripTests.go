package tests

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/fs"
	"github.com/polydawn/duffel/fs/osfs"
	"github.com/polydawn/duffel/testutil"
)

func CheckRoundTrip(archive api.ArchiveFunc, unarchive api.UnarchiveFunc) {
	Convey("SPEC: Round-trip archive and unarchive should preserve the flattened files", func() {
		for _, fixture := range AllFixtures {
			Convey(fmt.Sprintf("- Fixture %q", fixture.Name), func() {
				testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
					fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
					PlaceFixture(osfs.New(fixturePath), fixture.Files)
					container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("box.duffel")).String())
					// Archive it.
					report, err := archive(
						context.Background(),
						fixturePath.String(),
						container,
						api.Monitor{},
					)
					So(err, ShouldBeNil)
					So(report.Outcome, ShouldEqual, api.Outcome_Packed)
					So(report.Records, ShouldEqual, FixtureCensus(fixture.Files))
					// Unarchive to a new path.
					unpackPath := tmpDir.Join(fs.MustRelPath("unpack"))
					report2, err := unarchive(
						context.Background(),
						container,
						unpackPath.String(),
						api.Monitor{},
					)
					Convey("...and agree on content", FailureContinues, func() {
						So(err, ShouldBeNil)
						So(report2.Outcome, ShouldEqual, api.Outcome_Unpacked)
						So(report2.Records, ShouldEqual, FixtureCensus(fixture.Files))
						ShouldHaveFlatFiles(osfs.New(unpackPath), FlattenFixture(fixture.Files))
					})
				})
			})
		}
	})
}

func CheckNameCollision(archive api.ArchiveFunc, unarchive api.UnarchiveFunc) {
	Convey("SPEC: Basename collisions flatten to the record written last", func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
			PlaceFixture(osfs.New(fixturePath), FixtureCollision)
			container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("box.duffel")).String())
			report, err := archive(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)
			// Both colliding files become records; flattening is an unpack-time effect.
			So(report.Records, ShouldEqual, 2)
			unpackPath := tmpDir.Join(fs.MustRelPath("unpack"))
			report2, err := unarchive(context.Background(), container, unpackPath.String(), api.Monitor{})
			So(err, ShouldBeNil)
			So(report2.Records, ShouldEqual, 2)
			// One file remains, holding the later-walked content.
			ShouldHaveFlatFiles(osfs.New(unpackPath), FlattenFixture(FixtureCollision))
		})
	})
}

/*
	Asserts (convey-style) that the dir holds exactly the given flat
	files: same names, same bytes, nothing extra.
*/
func ShouldHaveFlatFiles(afs fs.FS, expected []FixtureFile) {
	names, err := afs.ReadDirNames(fs.RelPath{})
	So(err, ShouldBeNil)
	So(names, ShouldHaveLength, len(expected))
	for _, ff := range expected {
		f, err := afs.OpenFile(ff.Metadata.Name, os.O_RDONLY, 0)
		So(err, ShouldBeNil)
		body, err := ioutil.ReadAll(f)
		f.Close()
		So(err, ShouldBeNil)
		So(string(body), ShouldEqual, string(ff.Body))
	}
}
