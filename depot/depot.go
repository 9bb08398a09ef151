/*
	The depot is where container archives live.

	Depots are key-value-flavored storage: a container address names a
	single opaque byte stream, and reads and writes are whole-stream.
	The only implementation here is the local filesystem, where a
	container address is a file path (or "file://" URL), but the shape
	generalizes to readonly http gateways, cloud k/v buckets, etc.

	Transmats layered on a depot have some record format which reduces
	a dir down to a single binary stream; the depot understands nothing
	of that format.
*/
package depot

import (
	"io"
	"net/url"
	"os"
	"path/filepath"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/fs"
	"github.com/polydawn/duffel/lib/guid"
)

type Controller struct {
	addr     api.ContainerAddr // user's string retained for messages
	filePath fs.AbsolutePath
}

/*
	Initialize a new depot controller that operates on a local filesystem.

	May return errors of category:

	  - `api.ErrUsage` -- for unsupported addresses
	  - `api.ErrContainerUnavailable` -- if the dir the container would live in doesn't exist
*/
func NewController(addr api.ContainerAddr) (Controller, error) {
	// Stamp out a controller handle.
	//  More values will be accumulated in shortly.
	ctrl := Controller{
		addr: addr,
	}

	// Verify that the addr is sensible up front, and extract the file path.
	//  - We parse things mostly like URLs.
	//  - A bare path (no scheme) is accepted too, and means the same as 'file://'.
	u, err := url.Parse(string(addr))
	if err != nil {
		return ctrl, Errorf(api.ErrUsage, "failed to parse container addr: %s", err)
	}
	switch u.Scheme {
	case "", "file":
	default:
		return ctrl, Errorf(api.ErrUsage, "unsupported scheme in container addr: %q (the only valid option is 'file')", u.Scheme)
	}
	absPth, err := filepath.Abs(filepath.Join(u.Host, u.Path))
	if err != nil {
		panic(err)
	}
	ctrl.filePath = fs.MustAbsolutePath(absPth)

	// Check that the depot exists.
	//  The check is a little strange: the container file itself may or may
	//  not exist yet, and we don't know whether this controller is going to
	//  be used for reading or writing!  So we look at the path segment above
	//  it, which is where a write would have to land.
	checkPath := ctrl.filePath.Dir()
	stat, err := os.Stat(checkPath.String())
	switch {
	case os.IsNotExist(err):
		return ctrl, Errorf(api.ErrContainerUnavailable, "depot does not exist (%s)", err)
	case err != nil: // normally we'd style this as the default cause, but, we must check it before the IsDir option
		return ctrl, Errorf(api.ErrContainerUnavailable, "depot unavailable (%s)", err)
	case !stat.IsDir():
		return ctrl, Errorf(api.ErrContainerUnavailable, "depot does not exist (%s is not a dir)", checkPath)
	default: // only thing left is err == nil
		return ctrl, nil
	}
}

/*
	Open a reader for the container's raw byte stream.

	May return errors of category:

	  - `api.ErrContainerAbsent` -- if the container file simply isn't there
	  - `api.ErrContainerUnavailable` -- for any other failure to open
*/
func (ctrl Controller) OpenReader() (io.ReadCloser, error) {
	file, err := os.OpenFile(ctrl.filePath.String(), os.O_RDONLY, 0)
	switch {
	case err == nil:
		return file, nil
	case os.IsNotExist(err):
		return nil, Errorf(api.ErrContainerAbsent, "container %s not found", ctrl.addr)
	default:
		return nil, Errorf(api.ErrContainerUnavailable, "container %s could not be opened: %s", ctrl.addr, err)
	}
}

/*
	Open a write controller which will accept the container's new content.

	The incoming bytes land in a staging file next to the final path, so
	the commit rename stays on one filesystem and is atomic: concurrent
	readers see either the complete old container or the complete new one,
	never a half-written hybrid.
*/
func (ctrl Controller) OpenWriter() (*WriteController, error) {
	wc := &WriteController{ctrl: ctrl}
	// Pick a random staging path.
	tmpName := fs.MustRelPath(".tmp.duffel." + ctrl.filePath.Last() + "." + guid.New())
	wc.stagePath = ctrl.filePath.Dir().Join(tmpName)
	// Open the file for write.
	file, err := os.OpenFile(wc.stagePath.String(), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return wc, Errorf(api.ErrContainerUnwritable, "failed to reserve temp space in depot: %s", err)
	}
	wc.stream = file
	// Return the controller -- which has methods to either commit+close, or cancel+close.
	return wc, nil
}

type WriteController struct {
	stream    io.WriteCloser  // Write to this.
	ctrl      Controller      // Needed for the final move-into-place.
	stagePath fs.AbsolutePath // Needed for the final move-into-place.
}

func (wc *WriteController) Write(bs []byte) (int, error) {
	return wc.stream.Write(bs)
}

/*
	Cancel the current write.  Close the stream, and remove any temporary files.
*/
func (wc *WriteController) Close() error {
	wc.stream.Close()
	return os.Remove(wc.stagePath.String())
}

/*
	Commit the current data as the container's content.
	Closes the writer and invalidates any future use.
*/
func (wc *WriteController) Commit() error {
	// Close the file.
	if err := wc.stream.Close(); err != nil {
		return Errorf(api.ErrContainerUnwritable, "failed to commit container: %s", err)
	}
	// Move into place.
	if err := os.Rename(wc.stagePath.String(), wc.ctrl.filePath.String()); err != nil {
		return Errorf(api.ErrContainerUnwritable, "failed to commit container: %s", err)
	}
	return nil
}
