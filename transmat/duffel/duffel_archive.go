package duffel

import (
	"context"
	"io"
	"os"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/depot"
	"github.com/polydawn/duffel/fs"
	"github.com/polydawn/duffel/fs/osfs"
	"github.com/polydawn/duffel/transmat/mixins/log"
)

var (
	_ api.ArchiveFunc = Archive
)

/*
	Archive walks the source dir and writes one record per regular file
	into a container at the given address.

	If a container already sits at the address and still matches the
	source dir, nothing is written at all and the report says "skipped".
	Otherwise the container is rebuilt whole: records stream into a
	staged temp file next to the final path, which is renamed into place
	only after the last record lands.

	Source files that cannot be opened are passed over with a warning
	and a bump of the skip count; the rest of the archive proceeds.
*/
func Archive(
	ctx context.Context, // Long-running call.  Cancellable.
	sourcePath string, // The dir to walk and pack (absolute path).
	container api.ContainerAddr, // Container to save into.
	mon api.Monitor, // Optionally: callbacks for progress monitoring.
) (_ api.Report, err error) {
	if mon.Chan != nil {
		defer close(mon.Chan)
	}
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	// Sanitize arguments.
	path := fs.MustAbsolutePath(sourcePath)
	afs := osfs.New(path)

	// Dial the depot.
	ctrl, err := depot.NewController(container)
	if err != nil {
		return api.Report{}, err
	}

	// Census the source dir.
	entries, skips, err := collectFiles(ctx, afs, mon)
	if err != nil {
		return api.Report{}, err
	}

	// If a container already sits at the address and still matches,
	//  skip the write entirely.  A container we can't read just now is
	//  treated the same as a mismatched one: we rebuild it.
	if rc, err := ctrl.OpenReader(); err == nil {
		matched, records, byteCount, err := compareContainer(ctx, afs, container, rc, mon)
		rc.Close()
		if err != nil {
			return api.Report{}, err
		}
		if matched && censusMatches(mon, container, records, len(entries)) {
			log.ContainerStillMatches(mon, container)
			return api.Report{Outcome: api.Outcome_Skipped, Records: records, Bytes: byteCount}, nil
		}
	}

	// Get a write controller opened; records stream into its staging file.
	wc, err := ctrl.OpenWriter()
	if err != nil {
		return api.Report{}, err
	}
	defer wc.Close()

	// Walk the census, streaming one record per file.
	report := api.Report{Outcome: api.Outcome_Packed, Skips: skips}
	for i, entry := range entries {
		// Consider cancellation.
		if ctx.Err() != nil {
			return api.Report{}, Errorf(api.ErrCancelled, "cancelled")
		}

		// Open the source file before committing any header bytes, so
		//  an unreadable file skips cleanly instead of leaving a
		//  half-framed record in the container.
		f, err := afs.OpenFile(entry.path, os.O_RDONLY, 0)
		if err != nil {
			log.SourceFileUnreadable(mon, err, entry.path)
			report.Skips++
			continue
		}

		// Record header, then exactly the payload length.
		if err := writeRecordHeader(wc, entry.path.Last(), entry.size); err != nil {
			f.Close()
			return api.Report{}, Errorf(api.ErrContainerUnwritable, "error writing container: %s", err)
		}
		n, err := io.CopyN(wc, f, entry.size)
		f.Close()
		switch {
		case err == nil:
			// pass
		case err == io.EOF:
			// The file shrank underfoot; the container is already
			//  misframed, so give up.
			return api.Report{}, Errorf(api.ErrSourceUnreadable, "source file %q changed while being read (%d of %d bytes)", entry.path, n, entry.size)
		default:
			return api.Report{}, Errorf(api.ErrContainerUnwritable, "error writing container: %s", err)
		}
		report.Records++
		report.Bytes += entry.size

		if mon.Chan != nil {
			mon.Chan <- api.Event{Progress: &api.Event_Progress{
				Phase:     "archive",
				Desc:      entry.path.Last(),
				TotalProg: i + 1,
				TotalWork: len(entries),
			}}
		}
	}

	// Seal the deal.
	if err := wc.Commit(); err != nil {
		return api.Report{}, err
	}
	return report, nil
}
