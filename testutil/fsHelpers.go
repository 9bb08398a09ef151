package testutil

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/smartystreets/goconvey/convey"

	"github.com/polydawn/duffel/fs"
)

/*
	Run a function with a temporary directory, and remove the whole
	thing again afterward.

	The dir is made under the system temp dir, and the function receives
	its path with all symlinks already resolved (some systems reach
	their temp dirs through symlinks, which would otherwise confound
	path equality assertions later).
*/
func WithTmpdir(fn func(tmpDir fs.AbsolutePath)) {
	tmpBase, err := ioutil.TempDir("", "duffel-test-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpBase)
	realBase, err := filepath.EvalSymlinks(tmpBase)
	if err != nil {
		panic(err)
	}
	fn(fs.MustAbsolutePath(realBase))
}

func ShouldStat(afs fs.FS, path fs.RelPath) fs.Metadata {
	stat, err := afs.LStat(path)
	convey.So(err, convey.ShouldBeNil)
	stat.Mtime = stat.Mtime.UTC()
	return *stat
}
