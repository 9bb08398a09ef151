package duffelexecclient_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/api"
	duffelexecclient "github.com/polydawn/duffel/client"
	"github.com/polydawn/duffel/fs"
	"github.com/polydawn/duffel/testutil"
	"github.com/polydawn/duffel/transmat/mixins/tests"
)

func TestArgsMarshal(t *testing.T) {
	Convey("Args marshalling suite:", t, func() {
		So(duffelexecclient.ArchiveArgs("/tmp/src", "box.duffel"), ShouldResemble,
			[]string{"--archive", "--format=json", "--", "/tmp/src", "box.duffel"})
		So(duffelexecclient.UnarchiveArgs("box.duffel", "/tmp/out"), ShouldResemble,
			[]string{"--unarchive", "--format=json", "--", "box.duffel", "/tmp/out"})
		So(duffelexecclient.CheckArgs("/tmp/src", "box.duffel"), ShouldResemble,
			[]string{"--check", "--format=json", "--", "box.duffel", "/tmp/src"})
		So(duffelexecclient.ScanArgs("file://box.duffel"), ShouldResemble,
			[]string{"--scan", "--format=json", "--", "file://box.duffel"})
	})
}

// The rest of these tests really do exec.  That means a duffel binary
//  must already have been built into the project's bin dir; we point
//  PATH there, so commands on the regular host PATH can't interfere.

func TestExecClient(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	binDir := filepath.Join(cwd, "../bin")
	binPath := filepath.Join(binDir, "duffel")
	if err := os.Setenv("PATH", binDir); err != nil {
		panic(err)
	}

	Convey("Spec compliance: exec-RPC round-trip", t,
		testutil.Requires(testutil.RequiresFile(binPath), func() {
			tests.CheckRoundTrip(duffelexecclient.ArchiveFunc, duffelexecclient.UnarchiveFunc)
		}),
	)

	Convey("exec client error paths", t,
		testutil.Requires(testutil.RequiresFile(binPath), func() {
			Convey("unarchiving from an absent container yields the typed error", func() {
				testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
					_, err := duffelexecclient.UnarchiveFunc(
						context.Background(),
						api.ContainerAddr(tmpDir.Join(fs.MustRelPath("no-such.duffel")).String()),
						tmpDir.Join(fs.MustRelPath("unpack")).String(),
						api.Monitor{},
					)
					So(err, errcat.ErrorShouldHaveCategory, api.ErrContainerAbsent)
				})
			})
			Convey("an unusable container addr scheme yields the typed usage error", func() {
				_, err := duffelexecclient.ScanFunc(
					context.Background(),
					api.ContainerAddr("gopher://example.net/box.duffel"),
					api.Monitor{},
				)
				So(err, errcat.ErrorShouldHaveCategory, api.ErrUsage)
			})
		}),
	)
}
