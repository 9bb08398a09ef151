package fsOp

import (
	"fmt"
	"io"
	"os"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/fs"
)

/*
	Places a file on the filesystem.
	Replicates the attributes described in the metadata.

	The path within the filesystem is `fmeta.Name` (conventionally, this means
	the filesystem will join the `fmeta.Name` with the absolute base path
	it was constructed with).

	No changes are allowed to occur outside of the filesystem's base path.
	Symlinks may *point* at paths outside of the base path (and invalid
	symlinks are acceptable) -- however symlinks may *not* be traversed
	during any part of `fmeta.Name`; this is considered malformed input
	and will result in an ErrBreakout.

	Please note that like all filesystem operations within a lightyear of
	symlinks, all validations are best-effort, but are only capable of
	correctness in the absence of concurrent modifications inside the base path.
*/
func PlaceFile(afs fs.FS, fmeta fs.Metadata, body io.Reader) error {
	// First, no part of the path may be a symlink.
	for path := fmeta.Name; path != (fs.RelPath{}); path = path.Dir() {
		target, isSymlink, err := afs.Readlink(path)
		if isSymlink {
			return Errorf(fs.ErrBreakout, "placefile: refusing to traverse symlink at %q->%q while placing %q", path, target, fmeta.Name)
		}
		switch Category(err) {
		case nil, fs.ErrNotExists:
			// regular paths are fine; not existing yet is fine.
		default:
			return err
		}
	}

	// Fill in the content.
	switch fmeta.Type {
	case fs.Type_Invalid:
		panic(fmt.Errorf("invalid fs.Metadata.Type; partially constructed object?"))
	case fs.Type_File:
		file, err := afs.OpenFile(fmeta.Name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fmeta.Perms)
		if err != nil {
			return err
		}
		if _, err := io.Copy(file, body); err != nil {
			file.Close()
			return Errorf(fs.ErrMisc, "error while placing %q: %s", fmeta.Name, err)
		}
		if err := file.Close(); err != nil {
			return Errorf(fs.ErrMisc, "error while placing %q: %s", fmeta.Name, err)
		}
		return nil
	case fs.Type_Dir:
		if fmeta.Name == (fs.RelPath{}) {
			// for the base dir only: the dir may already exist, and that's fine.
			if existingFmeta, err := afs.LStat(fmeta.Name); err == nil && existingFmeta.Type == fs.Type_Dir {
				return nil
			}
		}
		return afs.Mkdir(fmeta.Name, fmeta.Perms)
	case fs.Type_Symlink:
		// linkname can be anything you want.  It continues to be a string parameter rather than
		//  any of our normalized `fs.*Path` types because it is perfectly valid (if odd)
		//  to store the string ".///" as a symlink target.
		return afs.Mklink(fmeta.Name, fmeta.Linkname)
	default:
		return Errorf(fs.ErrMisc, "placefile: unhandled file type %q", fmeta.Type)
	}
}
