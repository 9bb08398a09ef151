package tests

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/fs"
	"github.com/polydawn/duffel/fs/osfs"
	"github.com/polydawn/duffel/fsOp"
	"github.com/polydawn/duffel/testutil"
)

func CheckIdempotence(archive api.ArchiveFunc) {
	Convey("SPEC: Re-archiving an unchanged fileset should skip the write", func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
			PlaceFixture(osfs.New(fixturePath), FixtureMultifile)
			container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("box.duffel")).String())
			report, err := archive(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)
			So(report.Outcome, ShouldEqual, api.Outcome_Packed)
			containerBytes, err := ioutil.ReadFile(string(container))
			So(err, ShouldBeNil)
			// Again.  Nothing changed, so nothing should be written.
			report2, err := archive(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)
			So(report2.Outcome, ShouldEqual, api.Outcome_Skipped)
			So(report2.Records, ShouldEqual, report.Records)
			containerBytes2, err := ioutil.ReadFile(string(container))
			So(err, ShouldBeNil)
			So(string(containerBytes2), ShouldEqual, string(containerBytes))
		})
	})
}

func CheckCorruptionDetection(archive api.ArchiveFunc, check api.CheckFunc) {
	Convey("SPEC: Check must catch content, size, and census drift", func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
			afs := osfs.New(fixturePath)
			PlaceFixture(afs, FixtureAlpha)
			place := func(name string, body []byte) {
				fmeta := fs.Metadata{Name: fs.MustRelPath(name), Type: fs.Type_File, Perms: 0644}
				So(fsOp.PlaceFile(afs, fmeta, bytes.NewReader(body)), ShouldBeNil)
			}
			container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("box.duffel")).String())
			_, err := archive(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)
			report, err := check(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)
			So(report.Outcome, ShouldEqual, api.Outcome_Matched)

			expectMismatch := func() {
				report, err := check(context.Background(), fixturePath.String(), container, api.Monitor{})
				So(err, ShouldBeNil)
				So(report.Outcome, ShouldEqual, api.Outcome_Mismatched)
			}
			Convey("a flipped payload byte (same size) mismatches", func() {
				containerBytes, err := ioutil.ReadFile(string(container))
				So(err, ShouldBeNil)
				// Record layout for file "a": 1 name byte, 1 zero, 8 size bytes, then payload.
				containerBytes[10] ^= 0xFF
				So(ioutil.WriteFile(string(container), containerBytes, 0644), ShouldBeNil)
				expectMismatch()
			})
			Convey("a source file of changed size mismatches", func() {
				place("a", []byte("zy"))
				expectMismatch()
			})
			Convey("an extra source file mismatches", func() {
				place("extra", []byte("more"))
				expectMismatch()
			})
			Convey("a removed source file mismatches", func() {
				So(os.Remove(fixturePath.Join(fs.MustRelPath("a")).String()), ShouldBeNil)
				expectMismatch()
			})
		})
	})
}

func CheckBinarySafety(archive api.ArchiveFunc, check api.CheckFunc) {
	Convey("SPEC: Content differing only after an embedded zero byte must not match", func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
			afs := osfs.New(fixturePath)
			PlaceFixture(afs, FixtureBinary)
			container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("box.duffel")).String())
			_, err := archive(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)
			report, err := check(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)
			So(report.Outcome, ShouldEqual, api.Outcome_Matched)
			// Flip the final byte.  Size is unchanged, and the content up
			//  through the embedded zero still agrees.
			fmeta := fs.Metadata{Name: fs.MustRelPath("blob"), Type: fs.Type_File, Perms: 0644}
			So(fsOp.PlaceFile(afs, fmeta, bytes.NewReader([]byte{'q', 0x00, 'w', 'f'})), ShouldBeNil)
			report, err = check(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)
			So(report.Outcome, ShouldEqual, api.Outcome_Mismatched)
		})
	})
}

func CheckEmpty(archive api.ArchiveFunc, unarchive api.UnarchiveFunc, check api.CheckFunc) {
	Convey("SPEC: An empty fileset archives to an empty container, and both directions honor it", func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
			PlaceFixture(osfs.New(fixturePath), FixtureEmpty)
			container := api.ContainerAddr(tmpDir.Join(fs.MustRelPath("box.duffel")).String())
			report, err := archive(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)
			So(report.Outcome, ShouldEqual, api.Outcome_Packed)
			So(report.Records, ShouldEqual, 0)
			fi, err := os.Stat(string(container))
			So(err, ShouldBeNil)
			So(fi.Size(), ShouldEqual, 0)
			report, err = check(context.Background(), fixturePath.String(), container, api.Monitor{})
			So(err, ShouldBeNil)
			So(report.Outcome, ShouldEqual, api.Outcome_Matched)
			So(report.Records, ShouldEqual, 0)
			unpackPath := tmpDir.Join(fs.MustRelPath("unpack"))
			report, err = unarchive(context.Background(), container, unpackPath.String(), api.Monitor{})
			So(err, ShouldBeNil)
			So(report.Outcome, ShouldEqual, api.Outcome_Unpacked)
			So(report.Records, ShouldEqual, 0)
			ShouldHaveFlatFiles(osfs.New(unpackPath), nil)
		})
	})
}
