package main

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"testing"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/fs"
	"github.com/polydawn/duffel/fs/osfs"
	"github.com/polydawn/duffel/fsOp"
	"github.com/polydawn/duffel/testutil"
	"github.com/polydawn/duffel/transmat/mixins/tests"
)

// Run Main in-process with the given args, returning the exit code and
//  captured stdout and stderr.
func runMain(args ...string) (api.ExitCode, string, string) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	stdin := &bytes.Buffer{}
	exitCode := Main(context.Background(), append([]string{"duffel"}, args...), stdin, stdout, stderr)
	return exitCode, stdout.String(), stderr.String()
}

func TestUsageProblems(t *testing.T) {
	Convey("duffel: argument problems exit 1 with usage on stderr", t, func() {
		Convey("no args at all", func() {
			exitCode, stdout, stderr := runMain()
			So(exitCode, ShouldEqual, api.ExitUsage)
			So(stdout, ShouldBeBlank)
			So(stderr, ShouldContainSubstring, "exactly one mode flag is required")
			So(stderr, ShouldContainSubstring, "usage: duffel")
		})
		Convey("an unrecognized mode flag", func() {
			exitCode, stdout, stderr := runMain("-x", "folder", "box.duffel")
			So(exitCode, ShouldEqual, api.ExitUsage)
			So(stdout, ShouldBeBlank)
			So(stderr, ShouldNotBeBlank)
		})
		Convey("two mode flags at once", func() {
			exitCode, _, stderr := runMain("-a", "-u", "folder", "box.duffel")
			So(exitCode, ShouldEqual, api.ExitUsage)
			So(stderr, ShouldContainSubstring, "exactly one mode flag is required")
		})
		Convey("too few args for archive mode", func() {
			exitCode, _, stderr := runMain("-a", "folder")
			So(exitCode, ShouldEqual, api.ExitUsage)
			So(stderr, ShouldContainSubstring, "<sourceFolder> <archivePath>")
		})
		Convey("too many args for scan mode", func() {
			exitCode, _, stderr := runMain("-s", "box.duffel", "extra")
			So(exitCode, ShouldEqual, api.ExitUsage)
			So(stderr, ShouldContainSubstring, "<archivePath>")
		})
		Convey("more positional args than any mode takes", func() {
			exitCode, _, stderr := runMain("-a", "folder", "box.duffel", "extra")
			So(exitCode, ShouldEqual, api.ExitUsage)
			So(stderr, ShouldNotBeBlank)
		})
	})
}

func TestModesDumbFormat(t *testing.T) {
	// These asserts ride on the default output format, so bail if the
	//  environment is overriding it.
	Convey("duffel: the full cycle of modes in dumb format", t,
		testutil.Requires(testutil.RequiresEnvBlank("DUFFEL_FORMAT"), func() {
			testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
				fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
				tests.PlaceFixture(osfs.New(fixturePath), tests.FixtureMultifile)
				container := tmpDir.Join(fs.MustRelPath("box.duffel")).String()

				exitCode, stdout, _ := runMain("-a", fixturePath.String(), container)
				So(exitCode, ShouldEqual, api.ExitSuccess)
				So(stdout, ShouldEqual, "Archiving complete.\n")

				Convey("a second archiving of the same dir skips", func() {
					exitCode, stdout, _ := runMain("-a", fixturePath.String(), container)
					So(exitCode, ShouldEqual, api.ExitSuccess)
					So(stdout, ShouldEqual, "Archive already exists and contains identical files. Skipping archiving.\n")
				})
				Convey("unarchiving places the files", func() {
					unpackPath := tmpDir.Join(fs.MustRelPath("unpack"))
					exitCode, stdout, _ := runMain("-u", container, unpackPath.String())
					So(exitCode, ShouldEqual, api.ExitSuccess)
					So(stdout, ShouldEqual, "Unarchiving complete.\n")

					afs := osfs.New(unpackPath)
					stat := testutil.ShouldStat(afs, fs.MustRelPath("a.txt"))
					So(stat.Type, ShouldEqual, fs.Type_File)
					So(stat.Size, ShouldEqual, 2)
					_, body, err := fsOp.ScanFile(afs, fs.MustRelPath("b.bin"))
					So(err, ShouldBeNil)
					defer body.Close()
					bs, err := ioutil.ReadAll(body)
					So(err, ShouldBeNil)
					So(bs, ShouldResemble, []byte{0x00, 0x01, 0x02})
				})
				Convey("checking an untouched dir reports a match", func() {
					exitCode, stdout, _ := runMain("-c", container, fixturePath.String())
					So(exitCode, ShouldEqual, api.ExitSuccess)
					So(stdout, ShouldEqual, "Archive matches the folder.\n")
				})
				Convey("checking a drifted dir reports a mismatch, still exiting 0", func() {
					So(ioutil.WriteFile(fixturePath.Join(fs.MustRelPath("extra")).String(), []byte("more"), 0644), ShouldBeNil)
					exitCode, stdout, _ := runMain("-c", container, fixturePath.String())
					So(exitCode, ShouldEqual, api.ExitSuccess)
					So(stdout, ShouldEqual, "Archive does not match the folder.\n")
				})
				Convey("scanning tallies the records", func() {
					exitCode, stdout, _ := runMain("-s", container)
					So(exitCode, ShouldEqual, api.ExitSuccess)
					So(stdout, ShouldEqual, "Scan complete: 2 records, 5 payload bytes.\n")
				})
			})
		}),
	)
}

func TestJsonFormat(t *testing.T) {
	Convey("duffel: json format emits a decodable event stream", t, func() {
		testutil.WithTmpdir(func(tmpDir fs.AbsolutePath) {
			fixturePath := tmpDir.Join(fs.MustRelPath("fixture"))
			tests.PlaceFixture(osfs.New(fixturePath), tests.FixtureMultifile)
			container := tmpDir.Join(fs.MustRelPath("box.duffel")).String()

			Convey("a successful archive ends with a result event", func() {
				exitCode, stdout, _ := runMain("--format=json", "-a", fixturePath.String(), container)
				So(exitCode, ShouldEqual, api.ExitSuccess)
				events := decodeEvents(stdout)
				So(len(events), ShouldBeGreaterThanOrEqualTo, 1)
				result := events[len(events)-1].Result
				So(result, ShouldNotBeNil)
				So(result.Error, ShouldBeNil)
				So(result.Report.Outcome, ShouldEqual, api.Outcome_Packed)
				So(result.Report.Records, ShouldEqual, 2)
				So(result.Report.Bytes, ShouldEqual, 5)
			})
			Convey("an operation failure still exits 0, with the error in the result", func() {
				exitCode, stdout, _ := runMain("--format=json", "-u", tmpDir.String()+"/no-such.duffel", tmpDir.String()+"/unpack")
				So(exitCode, ShouldEqual, api.ExitSuccess)
				events := decodeEvents(stdout)
				So(len(events), ShouldEqual, 1)
				result := events[0].Result
				So(result, ShouldNotBeNil)
				So(result.Error, ShouldNotBeNil)
				So(result.Error.Category_, ShouldEqual, api.ErrContainerAbsent)
			})
		})
	})
}

func decodeEvents(raw string) []api.Event {
	unmarshaller := refmt.NewUnmarshallerAtlased(json.DecodeOptions{}, bytes.NewReader([]byte(raw)), api.Atlas)
	var events []api.Event
	for {
		var evt api.Event
		err := unmarshaller.Unmarshal(&evt)
		if err == io.EOF {
			return events
		}
		So(err, ShouldBeNil)
		events = append(events, evt)
	}
}
