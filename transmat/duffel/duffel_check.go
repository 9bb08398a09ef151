package duffel

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strconv"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/depot"
	"github.com/polydawn/duffel/fs"
	"github.com/polydawn/duffel/fs/osfs"
	"github.com/polydawn/duffel/transmat/mixins/log"
)

var (
	_ api.CheckFunc = Check
)

/*
	Check answers whether the container at the given address still
	describes the source dir, without writing anything anywhere.

	"Describes" means: every record names a file sitting directly under
	the source root with the same size and byte-identical content, and
	the count of records equals the count of regular files in the whole
	source tree.  An absent (or unopenable, or undecodable) container
	describes nothing, so those all answer "mismatched" rather than
	erroring.
*/
func Check(
	ctx context.Context, // Long-running call.  Cancellable.
	sourcePath string, // The dir to compare against (absolute path).
	container api.ContainerAddr, // Container to read records out of.
	mon api.Monitor, // Optionally: callbacks for progress monitoring.
) (_ api.Report, err error) {
	if mon.Chan != nil {
		defer close(mon.Chan)
	}
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	// Sanitize arguments.
	path := fs.MustAbsolutePath(sourcePath)
	afs := osfs.New(path)

	// Dial the depot and open the container.
	ctrl, err := depot.NewController(container)
	if err != nil {
		return api.Report{}, err
	}
	rc, err := ctrl.OpenReader()
	switch Category(err) {
	case nil:
		// pass
	case api.ErrContainerAbsent:
		log.Mismatch(mon, container, "container does not exist", nil)
		return api.Report{Outcome: api.Outcome_Mismatched}, nil
	default:
		log.Mismatch(mon, container, "container cannot be opened", [][2]string{{"error", err.Error()}})
		return api.Report{Outcome: api.Outcome_Mismatched}, nil
	}
	defer rc.Close()

	// Compare records against the dir.
	matched, records, byteCount, err := compareContainer(ctx, afs, container, rc, mon)
	if err != nil {
		return api.Report{}, err
	}
	if !matched {
		return api.Report{Outcome: api.Outcome_Mismatched, Records: records, Bytes: byteCount}, nil
	}

	// Compare the file census.
	entries, _, err := collectFiles(ctx, afs, mon)
	if err != nil {
		return api.Report{}, err
	}
	if !censusMatches(mon, container, records, len(entries)) {
		return api.Report{Outcome: api.Outcome_Mismatched, Records: records, Bytes: byteCount}, nil
	}
	return api.Report{Outcome: api.Outcome_Matched, Records: records, Bytes: byteCount}, nil
}

/*
	The record half of the match algorithm: walks the container records,
	answering whether every one of them describes a file sitting directly
	under the afs root byte-for-byte.  The first discrepancy wins: an
	info log says what differed, and no further records are read.

	Corrupt records also answer "no match" here (a container that cannot
	be decoded cannot describe anything); only cancellation actually
	errors.
*/
func compareContainer(ctx context.Context, afs fs.FS, container api.ContainerAddr, r io.Reader, mon api.Monitor) (bool, int, int64, error) {
	br := bufio.NewReader(r)
	records := 0
	byteCount := int64(0)
	var recBuf, fileBuf [32 * 1024]byte
	for {
		// Consider cancellation.
		if ctx.Err() != nil {
			return false, records, byteCount, Errorf(api.ErrCancelled, "cancelled")
		}

		// Read the next record header.
		name, size, err := readRecordHeader(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Mismatch(mon, container, "cannot decode records", [][2]string{{"error", err.Error()}})
			return false, records, byteCount, nil
		}

		// The named file must exist directly under the root, as a
		//  regular file (via symlinks is fine), with the same size.
		fpath := fs.MustRelPath(name)
		fi, err := afs.Stat(fpath)
		switch {
		case Category(err) == fs.ErrNotExists:
			log.Mismatch(mon, container, "no such source file", [][2]string{{"name", name}})
			return false, records, byteCount, nil
		case err != nil:
			log.Mismatch(mon, container, "source file unreadable", [][2]string{{"name", name}, {"error", err.Error()}})
			return false, records, byteCount, nil
		case fi.Type != fs.Type_File:
			log.Mismatch(mon, container, "source path is not a regular file", [][2]string{{"name", name}})
			return false, records, byteCount, nil
		case fi.Size != size:
			log.Mismatch(mon, container, "size differs", [][2]string{{"name", name}})
			return false, records, byteCount, nil
		}

		// And its content must be byte-identical over the full payload.
		f, err := afs.OpenFile(fpath, os.O_RDONLY, 0)
		if err != nil {
			log.Mismatch(mon, container, "source file unreadable", [][2]string{{"name", name}, {"error", err.Error()}})
			return false, records, byteCount, nil
		}
		same, truncated := true, false
		remaining := size
		for same && remaining > 0 {
			n := int64(len(recBuf))
			if remaining < n {
				n = remaining
			}
			if _, err := io.ReadFull(br, recBuf[:n]); err != nil {
				truncated = true
				break
			}
			if _, err := io.ReadFull(f, fileBuf[:n]); err != nil {
				same = false // File ended early or read failed: either way, no match.
				break
			}
			same = bytes.Equal(recBuf[:n], fileBuf[:n])
			remaining -= n
		}
		f.Close()
		switch {
		case truncated:
			log.Mismatch(mon, container, "cannot decode records", [][2]string{{"name", name}, {"error", "payload cut short"}})
			return false, records, byteCount, nil
		case !same:
			log.Mismatch(mon, container, "content differs", [][2]string{{"name", name}})
			return false, records, byteCount, nil
		}
		records++
		byteCount += size
	}
	return true, records, byteCount, nil
}

/*
	The census half of the match algorithm: every record matched, but
	the source dir must also not hold files the container lacks.  Logs
	and answers false when the counts differ.
*/
func censusMatches(mon api.Monitor, container api.ContainerAddr, records int, census int) bool {
	if records == census {
		return true
	}
	log.Mismatch(mon, container, "file count differs", [][2]string{
		{"containerRecords", strconv.Itoa(records)},
		{"sourceFiles", strconv.Itoa(census)},
	})
	return false
}
