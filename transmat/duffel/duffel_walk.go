package duffel

import (
	"context"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/fs"
	"github.com/polydawn/duffel/transmat/mixins/log"
)

type fileEntry struct {
	path fs.RelPath // Full path relative to the walk root.
	size int64      // Regular file size (symlinks already resolved).
}

/*
	Walks the source dir and returns one entry per regular file, in walk
	order (depth-first, sorted dirent names).  Symlinks to regular files
	count as the file they point to; everything else -- dirs, dangling
	links, devices -- is passed over without remark.  Files the walk can
	see but not stat are passed over with a warning and counted in the
	second return.

	The walk root being missing or unreadable is fatal and comes back as
	ErrSourceUnreadable, as does any error enumerating a subdir.
*/
func collectFiles(ctx context.Context, afs fs.FS, mon api.Monitor) ([]fileEntry, int, error) {
	var entries []fileEntry
	skips := 0
	preVisit := func(node *fs.FilewalkNode) error {
		// Consider cancellation.
		if ctx.Err() != nil {
			return Errorf(api.ErrCancelled, "cancelled")
		}
		if node.Err != nil {
			if node.Path == (fs.RelPath{}) {
				return Errorf(api.ErrSourceUnreadable, "cannot read source dir: %s", node.Err)
			}
			log.SourceFileUnreadable(mon, node.Err, node.Path)
			skips++
			return nil
		}
		switch node.Info.Type {
		case fs.Type_File:
			entries = append(entries, fileEntry{node.Path, node.Info.Size})
		case fs.Type_Symlink:
			// Links to regular files are recorded as the file they
			//  reference; the reference itself is not preserved.
			fi, err := afs.Stat(node.Path)
			switch {
			case err == nil && fi.Type == fs.Type_File:
				entries = append(entries, fileEntry{node.Path, fi.Size})
			case err == nil:
				// Link to a dir or other non-file: not a regular file.
			case Category(err) == fs.ErrNotExists:
				// Dangling link: not a regular file.
			default:
				log.SourceFileUnreadable(mon, err, node.Path)
				skips++
			}
		}
		return nil
	}
	if err := fs.Walk(afs, preVisit, nil); err != nil {
		switch Category(err).(type) {
		case api.ErrorCategory:
			return nil, skips, err
		default:
			return nil, skips, Errorf(api.ErrSourceUnreadable, "error walking source dir: %s", err)
		}
	}
	return entries, skips, nil
}
