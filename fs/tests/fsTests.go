package tests

import (
	"os"

	. "github.com/smartystreets/goconvey/convey"
	errcat "github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/fs"
)

func CheckBaseLstat(afs fs.FS) {
	Convey("SPEC: lstat on the base path should report a dir", func() {
		stat, err := afs.LStat(fs.RelPath{})
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_Dir)
	})
}

func CheckMkdirLstatRoundtrip(afs fs.FS) {
	Convey("SPEC: mkdir and lstat should roundtrip", func() {
		d1 := fs.MustRelPath("d1")
		So(afs.Mkdir(d1, 0755), ShouldBeNil)
		stat, err := afs.LStat(d1)
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_Dir)
	})
}

func CheckDeepMkdirError(afs fs.FS) {
	Convey("SPEC: deep mkdir should error", func() {
		d1d2 := fs.MustRelPath("d1/d2")
		So(afs.Mkdir(d1d2, 0755), errcat.ErrorShouldHaveCategory, fs.ErrNotExists)
		_, err := afs.LStat(d1d2)
		So(err, errcat.ErrorShouldHaveCategory, fs.ErrNotExists)
	})
}

func CheckMklinkLstatRoundtrip(afs fs.FS) {
	Convey("SPEC: mklink and lstat should roundtrip", func() {
		l1 := fs.MustRelPath("l1")
		So(afs.Mklink(l1, "./target"), ShouldBeNil)
		stat, err := afs.LStat(l1)
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_Symlink)
		So(stat.Linkname, ShouldEqual, "./target")
	})
}

func CheckSymlinks(afs fs.FS) {
	Convey("symlink resolve", func() {
		Convey("symlinks to files resolve correctly", func() {
			Convey("short relative case", func() {
				l1 := fs.MustRelPath("l1")
				targetStr := "./target"
				target := fs.MustRelPath(targetStr)

				So(afs.Mklink(l1, targetStr), ShouldBeNil)
				So(makeFile(afs, target, "body"), ShouldBeNil)

				resolved, err := afs.ResolveLink(targetStr, l1)
				So(err, ShouldBeNil)
				So(resolved, ShouldResemble, target)
			})
			Convey("dangling targets still resolve", func() {
				l2 := fs.MustRelPath("l2")
				So(afs.Mklink(l2, "./nowhere"), ShouldBeNil)

				resolved, err := afs.ResolveLink("./nowhere", l2)
				So(err, ShouldBeNil)
				So(resolved, ShouldResemble, fs.MustRelPath("nowhere"))
			})
		})
	})
}

func CheckPerniciousSymlinks(afs fs.FS) {
	Convey("SPEC: pernicious symlinks should be refused or contained", func() {
		Convey("cyclic symlinks are detected", func() {
			So(afs.Mklink(fs.MustRelPath("cycle-a"), "./cycle-b"), ShouldBeNil)
			So(afs.Mklink(fs.MustRelPath("cycle-b"), "./cycle-a"), ShouldBeNil)
			_, err := afs.ResolveLink("./cycle-b", fs.MustRelPath("cycle-a"))
			So(err, errcat.ErrorShouldHaveCategory, fs.ErrRecursion)
		})
		Convey("paths departing the base are refused", func() {
			_, err := afs.LStat(fs.MustRelPath("../zool"))
			So(err, errcat.ErrorShouldHaveCategory, fs.ErrBreakout)
		})
		Convey("upward symlink targets clamp at the base", func() {
			So(afs.Mklink(fs.MustRelPath("sneaky"), "../../target"), ShouldBeNil)
			resolved, err := afs.ResolveLink("../../target", fs.MustRelPath("sneaky"))
			So(err, ShouldBeNil)
			So(resolved, ShouldResemble, fs.MustRelPath("target"))
		})
	})
}

func CheckOpsTraversingSymlinks(afs fs.FS) {
	Convey("SPEC: ops traversing symlinks should act within the base", func() {
		So(afs.Mkdir(fs.MustRelPath("real"), 0755), ShouldBeNil)
		So(afs.Mklink(fs.MustRelPath("door"), "./real"), ShouldBeNil)
		So(makeFile(afs, fs.MustRelPath("door/knock"), "anyone home?"), ShouldBeNil)
		stat, err := afs.LStat(fs.MustRelPath("real/knock"))
		So(err, ShouldBeNil)
		So(stat.Type, ShouldEqual, fs.Type_File)
		So(stat.Size, ShouldEqual, int64(len("anyone home?")))
	})
}

func makeFile(afs fs.FS, path fs.RelPath, body string) error {
	f, err := afs.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write([]byte(body))
	return err
}
