package fs

import (
	"time"
)

type Metadata struct {
	Name     RelPath   // filename
	Type     Type      // type enum of the file
	Perms    Perms     // permission bits, including setuid/setgid/sticky
	Size     int64     // length in bytes (meaningful for regular files only)
	Linkname string    // if symlink: target name of link
	Mtime    time.Time // modified time
}

type Type uint8

const (
	Type_Invalid Type = iota
	Type_File
	Type_Dir
	Type_Symlink
	Type_NamedPipe
	Type_Socket
	Type_Device
	Type_CharDevice
)

func (t Type) String() string {
	switch t {
	case Type_File:
		return "file"
	case Type_Dir:
		return "dir"
	case Type_Symlink:
		return "symlink"
	case Type_NamedPipe:
		return "fifo"
	case Type_Socket:
		return "socket"
	case Type_Device:
		return "device"
	case Type_CharDevice:
		return "chardev"
	default:
		return "invalid"
	}
}

/*
	Permission bits, in unix style: the low 9 bits are read/write/execute
	for owner/group/other, and the next 3 are setuid/setgid/sticky.
	(This is the same bit layout syscalls use; it is *not* the same as
	the stdlib os.FileMode layout.)
*/
type Perms uint16

const (
	Perms_Setuid Perms = 04000
	Perms_Setgid Perms = 02000
	Perms_Sticky Perms = 01000
)
