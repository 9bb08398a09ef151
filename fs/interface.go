package fs

import (
	"io"
)

/*
	Interface for all primitive functions we expect to be able to perform
	on a filesystem.

	All paths accepted are RelPath types; typically the FS instance
	is constructed with an AbsolutePath, and all further operations are
	joined with that base path.

	Symlinks are never followed past the base path: implementations
	resolve each path segment within the base, and return ErrBreakout
	rather than traverse outside of it.
*/
type FS interface {
	// The basepath this filesystem was constructed with.
	// If file control for the whole system is desired, use a base path of "/".
	BasePath() AbsolutePath

	OpenFile(path RelPath, flag int, perms Perms) (File, error)

	Mkdir(path RelPath, perms Perms) error

	Mklink(path RelPath, target string) error

	Stat(path RelPath) (*Metadata, error)

	LStat(path RelPath) (*Metadata, error)

	ReadDirNames(path RelPath) ([]string, error)

	// Reads the target of a symlink.  The second return value is false
	// if the path was not a symlink (and this alone is not an error).
	Readlink(path RelPath) (string, bool, error)

	// Resolves a symlink target string relative to some starting path,
	// following any further links (with cycle detection), and keeping
	// the final path inside the base path.
	ResolveLink(symlink string, startingAt RelPath) (RelPath, error)
}

type File interface {
	io.Closer
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Writer
	io.WriterAt
}
