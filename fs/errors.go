package fs

import (
	"os"
	"syscall"

	. "github.com/warpfork/go-errcat"
)

type ErrorCategory string

const (
	ErrMisc          ErrorCategory = "fs-misc"           // Catchall for IO errors that fit no other category.
	ErrNotExists     ErrorCategory = "fs-not-exists"     //
	ErrAlreadyExists ErrorCategory = "fs-already-exists" //
	ErrNotDir        ErrorCategory = "fs-not-dir"        // Raised when an operation path traverses through a file.
	ErrPermissions   ErrorCategory = "fs-permission"     //
	ErrRecursion     ErrorCategory = "fs-recursion"      // Walking a symlink chain found a cycle.
	ErrBreakout      ErrorCategory = "fs-breakout"       // A path or symlink would have departed the base path.
)

/*
	Normalize any of stdlib's loosely typed IO errors into an
	errcat error with one of the fs.Err* categories.
	Nil begets nil.

	Note that any function returning ErrBreakout is, by nature, doing so
	in a best-effort sense: if there are concurrent modifications to the
	operational area of the filesystem by any other processes, it is
	*impossible* to avoid a TOCTOU violation.
*/
func NormalizeIOError(ioe error) error {
	switch {
	case ioe == nil:
		return nil
	case os.IsNotExist(ioe):
		return Errorf(ErrNotExists, "%s", ioe)
	case os.IsExist(ioe):
		return Errorf(ErrAlreadyExists, "%s", ioe)
	case os.IsPermission(ioe):
		return Errorf(ErrPermissions, "%s", ioe)
	case errnoIs(ioe, syscall.ENOTDIR):
		return Errorf(ErrNotDir, "%s", ioe)
	default:
		return Errorf(ErrMisc, "%s", ioe)
	}
}

func errnoIs(ioe error, errno syscall.Errno) bool {
	switch e2 := ioe.(type) {
	case *os.PathError:
		return e2.Err == errno
	case *os.LinkError:
		return e2.Err == errno
	case *os.SyscallError:
		return e2.Err == errno
	default:
		return false
	}
}
