/*
	Helper functions for emitting structured logs to the api.Monitor.

	These functions encompass most common lifecycle events in a transmat,
	and using them A) saves typing and B) keeps the common stuff formatted
	in a common way between transmats.
	Transmats can of course also write their own log events raw; it is freetext.
*/
package log

import (
	"fmt"
	"time"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/fs"
)

// Typically called with a 'fs.ErrPermissions' or the like.  The file is
// passed over and the archive rolls on without it.
func SourceFileUnreadable(mon api.Monitor, err error, path fs.RelPath) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Time:  time.Now(),
			Level: api.LogWarn,
			Msg:   fmt.Sprintf("passing over unreadable source file %s: %s", path, err),
			Detail: [][2]string{
				{"path", path.String()},
				{"error", err.Error()},
			},
		},
	}
}

// Called when a target file can't be opened for write.  The record is
// passed over (its payload is consumed and discarded) and the unarchive
// rolls on.
func TargetFileUncreatable(mon api.Monitor, err error, path fs.RelPath) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Time:  time.Now(),
			Level: api.LogWarn,
			Msg:   fmt.Sprintf("passing over uncreatable target file %s: %s", path, err),
			Detail: [][2]string{
				{"path", path.String()},
				{"error", err.Error()},
			},
		},
	}
}

// Called by archive when the existing container still matches the source
// dir, meaning no write is going to happen.
func ContainerStillMatches(mon api.Monitor, container api.ContainerAddr) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Time:  time.Now(),
			Level: api.LogInfo,
			Msg:   fmt.Sprintf("container %s still matches the source dir; skipping write", container),
			Detail: [][2]string{
				{"container", string(container)},
			},
		},
	}
}

// Called with a human-readable reason whenever a container and a dir are
// found to disagree (which includes finding the container corrupt).
func Mismatch(mon api.Monitor, container api.ContainerAddr, reason string, detail [][2]string) {
	if mon.Chan == nil {
		return
	}
	mon.Chan <- api.Event{
		Log: &api.Event_Log{
			Time:   time.Now(),
			Level:  api.LogInfo,
			Msg:    fmt.Sprintf("container %s does not match: %s", container, reason),
			Detail: append([][2]string{{"container", string(container)}}, detail...),
		},
	}
}
