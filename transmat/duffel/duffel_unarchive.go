package duffel

import (
	"bufio"
	"context"
	"io"
	"io/ioutil"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/depot"
	"github.com/polydawn/duffel/fs"
	"github.com/polydawn/duffel/fs/osfs"
	"github.com/polydawn/duffel/fsOp"
	"github.com/polydawn/duffel/transmat/mixins/log"
)

var (
	_ api.UnarchiveFunc = Unarchive
)

/*
	Unarchive places every record of a container into the target dir,
	flat: each record's payload lands at target/name with a truncating
	create, so colliding names resolve to the last record in.

	The target dir (and any missing parents) are created if absent.
	Target files that cannot be created are passed over with a warning
	and a bump of the skip count; each passed-over record's payload is
	still drained so the remaining records stay framed.
*/
func Unarchive(
	ctx context.Context, // Long-running call.  Cancellable.
	container api.ContainerAddr, // Container to read records out of.
	targetPath string, // Where to place the files (absolute path).
	mon api.Monitor, // Optionally: callbacks for progress monitoring.
) (_ api.Report, err error) {
	if mon.Chan != nil {
		defer close(mon.Chan)
	}
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	// Sanitize arguments.
	path := fs.MustAbsolutePath(targetPath)

	// Dial the depot and open the container.
	ctrl, err := depot.NewController(container)
	if err != nil {
		return api.Report{}, err
	}
	rc, err := ctrl.OpenReader()
	if err != nil {
		return api.Report{}, err
	}
	defer rc.Close()

	// Make the target dir, if it isn't already there.
	rootFs := osfs.New(fs.MustAbsolutePath("/"))
	if err := fsOp.MkdirAll(rootFs, path.CoerceRelative(), 0755); err != nil {
		return api.Report{}, Errorf(api.ErrTargetUncreatable, "cannot create target dir: %s", err)
	}

	// Unpack.
	report, err := unpackContainer(ctx, osfs.New(path), container, rc, mon)
	if err != nil {
		return api.Report{}, err
	}
	report.Outcome = api.Outcome_Unpacked
	return report, nil
}

/*
	The record-placing loop shared by Unarchive and Scan: decodes each
	record and places its payload at the record's name under the afs
	root.  The returned report counts placed records and moved payload
	bytes, and has no outcome set; callers brand it.

	Records whose target cannot be placed are skipped (warn log, skip
	count, payload drained).  Undecodable records abort with
	ErrContainerCorrupt: once framing is lost, nothing after it can be
	trusted.
*/
func unpackContainer(ctx context.Context, afs fs.FS, container api.ContainerAddr, r io.Reader, mon api.Monitor) (api.Report, error) {
	br := bufio.NewReader(r)
	report := api.Report{}
	for {
		// Consider cancellation.
		if ctx.Err() != nil {
			return report, Errorf(api.ErrCancelled, "cancelled")
		}

		// Read the next record header.
		name, size, err := readRecordHeader(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return report, err
		}

		// Place the payload.  The limited reader both caps the copy and
		//  tells us afterwards whether the container actually held as
		//  many payload bytes as the header declared.
		fmeta := fs.Metadata{
			Name:  fs.MustRelPath(name),
			Type:  fs.Type_File,
			Perms: 0644,
			Size:  size,
		}
		body := &io.LimitedReader{R: br, N: size}
		if err := fsOp.PlaceFile(afs, fmeta, body); err != nil {
			log.TargetFileUncreatable(mon, err, fmeta.Name)
			report.Skips++
			if _, err := io.CopyN(ioutil.Discard, br, body.N); err != nil {
				return report, Errorf(api.ErrContainerCorrupt, "corrupt container: payload for %q cut short: %s", name, err)
			}
			continue
		}
		if body.N > 0 {
			return report, Errorf(api.ErrContainerCorrupt, "corrupt container: payload for %q ends %d bytes early", name, body.N)
		}
		report.Records++
		report.Bytes += size

		if mon.Chan != nil {
			mon.Chan <- api.Event{Progress: &api.Event_Progress{
				Phase:     "unpack",
				Desc:      name,
				TotalProg: report.Records,
				TotalWork: 0, // Record count isn't known ahead in a stream.
			}}
		}
	}
	return report, nil
}
