package duffel

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"strings"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/api"
)

const (
	// Longest name field we'll accept when reading.  Linux's NAME_MAX is
	//  255, so this is generous headroom; a name field claiming to run
	//  longer than this is surely not a real container.
	nameMax = 4096

	// Width of the size field on the wire.
	sizeWidth = 8
)

/*
	Reads the header of the next record: the name field up through its
	zero byte delimiter, then the fixed-width big-endian size field.

	A clean io.EOF before the first name byte means the stream ended at
	a record boundary, and is returned verbatim; the caller should treat
	it as end-of-container.  EOF anywhere later in the header means the
	container was cut off mid-record and comes back as ErrContainerCorrupt,
	as do malformed name fields (empty, containing a path separator, or
	longer than any sane filename).
*/
func readRecordHeader(r *bufio.Reader) (string, int64, error) {
	// Name field: everything up to the zero byte.
	var nameBuf []byte
	for {
		b, err := r.ReadByte()
		switch {
		case err == io.EOF && len(nameBuf) == 0:
			return "", 0, io.EOF
		case err != nil:
			return "", 0, Errorf(api.ErrContainerCorrupt, "corrupt container: record name field cut short: %s", err)
		}
		if b == 0 {
			break
		}
		nameBuf = append(nameBuf, b)
		if len(nameBuf) > nameMax {
			return "", 0, Errorf(api.ErrContainerCorrupt, "corrupt container: record name field exceeds %d bytes", nameMax)
		}
	}
	name := string(nameBuf)
	switch {
	case name == "":
		return "", 0, Errorf(api.ErrContainerCorrupt, "corrupt container: record with empty name")
	case name == "." || name == "..":
		return "", 0, Errorf(api.ErrContainerCorrupt, "corrupt container: record name %q is not a file name", name)
	case strings.ContainsRune(name, '/'):
		return "", 0, Errorf(api.ErrContainerCorrupt, "corrupt container: record name %q contains a path separator", name)
	}

	// Size field.
	var sizeBuf [sizeWidth]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return "", 0, Errorf(api.ErrContainerCorrupt, "corrupt container: record size field cut short: %s", err)
	}
	size := binary.BigEndian.Uint64(sizeBuf[:])
	if size > math.MaxInt64 {
		return "", 0, Errorf(api.ErrContainerCorrupt, "corrupt container: record %q claims an absurd size", name)
	}
	return name, int64(size), nil
}

/*
	Writes one record header: name, delimiter, size.  The payload bytes
	are the caller's to stream next.  Errors are the raw writer's.
*/
func writeRecordHeader(w io.Writer, name string, size int64) error {
	var sizeBuf [sizeWidth]byte
	binary.BigEndian.PutUint64(sizeBuf[:], uint64(size))
	buf := make([]byte, 0, len(name)+1+sizeWidth)
	buf = append(buf, name...)
	buf = append(buf, 0)
	buf = append(buf, sizeBuf[:]...)
	_, err := w.Write(buf)
	return err
}
