/*
	Interfaces of duffel commands.

	The heuristic for the duffel callable library API is that essentially
	all information must be racked up in the call already: the assumption
	is that the side doing the real work might not share a filesystem with
	you (well, it probably does!  but it might be a subset, translated
	through chroots and bind mounts), doesn't share env vars, etc.
	So, general rule of thumb: the caller is going to have already handled
	all config loading and parsing, and those objects are params in these funcs.
*/
package api

import (
	"context"
	"time"
)

type ArchiveFunc func(
	ctx context.Context, // Long-running call.  Cancellable.
	sourcePath string, // The dir to walk and pack (absolute path).
	container ContainerAddr, // Container to save into.
	monitor Monitor, // Optionally: callbacks for progress monitoring.
) (Report, error)

type UnarchiveFunc func(
	ctx context.Context, // Long-running call.  Cancellable.
	container ContainerAddr, // Container to read records out of.
	targetPath string, // Where to place the files (absolute path).
	monitor Monitor, // Optionally: callbacks for progress monitoring.
) (Report, error)

type CheckFunc func(
	ctx context.Context, // Long-running call.  Cancellable.
	sourcePath string, // The dir to compare against (absolute path).
	container ContainerAddr, // Container to read records out of.
	monitor Monitor, // Optionally: callbacks for progress monitoring.
) (Report, error)

type ScanFunc func(
	ctx context.Context, // Long-running call.  Cancellable.
	container ContainerAddr, // Container to read records out of.
	monitor Monitor, // Optionally: callbacks for progress monitoring.
) (Report, error)

/*
	Monitoring configuration structs, and message types used.
*/
type (
	// REVIEW ... it's rather generalizing to use the same monitor and event union
	//  for all these different functions, isn't it?

	/*
		Configuration for what intermediate progress reports a process should send,
		and slot for the channel the caller wishes them to be sent to.
	*/
	Monitor struct {
		// FUTURE: may add options for how many things we'd like to be sent to us

		// Channel to which events will be sent as the process proceeds.
		// The channel will be closed when the process is done or cancelled.
		// A nil channel will disable all intermediate progress reporting.
		Chan chan<- Event
	}

	/*
		A "union" type of all the kinds of event that may be generated in the
		course of any of the functions.

		The "Result" message is never sent to Monitor.Chan --
		its values are converted into the function returns --
		but *is* seen in the serial form on the wire.

		(This type may be replaced by an interface in the future when the refmt
		library's union message support becomes available.)
	*/
	Event struct {
		Log      *Event_Log      `refmt:"log,omitempty"`
		Progress *Event_Progress `refmt:"prog,omitempty"`
		Result   *Event_Result   `refmt:"result,omitempty"`
	}

	/*
		Log events are freetext log lines with optional k/v details attached.

		They're for humans.  No part of the system is permitted to vary its
		behavior based on the content of one, and they come with no compat
		promises; report totals and error categories are the machine surface.
	*/
	Event_Log struct {
		Time   time.Time   `refmt:"t"`
		Level  LogLevel    `refmt:"lvl"`
		Msg    string      `refmt:"msg"`
		Detail [][2]string `refmt:"detail,omitempty"`
	}

	/*
		Notifications about progress updates.

		Imagine it being used to draw the following:

			Packing (145/290 records): [=====>    ]  50%

		The 'totalProg' and 'totalWork' ints are expected to be a percentage;
		when they equal, a "done" state should be up next.
		A value of 'totalProg' greater than 'totalWork' is nonsensical --
		except that a 'totalWork' of zero means the total isn't known
		(progress over a stream).

		The 'phase' and 'desc' args are freetext;
		Typically, 'phase' will remain the same for many calls in a row, while
		'desc' is used to communicate a more specific contextual info
		than the 'total*' ints and like the ints may likely change on each call.
	*/
	Event_Progress struct {
		Phase, Desc          string
		TotalProg, TotalWork int
	}

	Event_Result struct {
		Report Report `refmt:"report"`
		Error  *Error `refmt:"error,omitempty"`
	}
)

type LogLevel int8

const (
	LogError = LogLevel(4) // Error log lines, if emitted, mean the operation is on its way to returning an error.
	LogWarn  = LogLevel(3) // Warning logs mean something unfortunate happened but the operation is proceeding (e.g. a file was passed over best-effort).
	LogInfo  = LogLevel(2) // Info logs are statements about progress or relevant info.  (This is the default log level.)
	LogDebug = LogLevel(1) // Debug logs are off by default.
)

type ErrorCategory string
type ExitCode int

const (
	ExitSuccess                                       = ExitCode(0)
	ExitUsage, ErrUsage                               = ExitCode(1), ErrorCategory("duffel-usage-error")           // Indicates some piece of user input to a command was invalid and unrunnable.
	ExitPanic                                         = ExitCode(2)                                                // Placeholder.  We don't use this.  '2' happens when golang exits due to panic.
	ExitContainerUnavailable, ErrContainerUnavailable = ExitCode(3), ErrorCategory("duffel-container-unavailable") // Indicates the container address didn't pan out: the file couldn't be opened (for reasons other than clean absence) or didn't parse as an address at all.
	ExitContainerUnwritable, ErrContainerUnwritable   = ExitCode(4), ErrorCategory("duffel-container-unwritable")  // Indicates the container failed to accept a write operation.  The storage is having a bad day.  ("unauthorized" is a different error category.)
	ExitContainerAbsent, ErrContainerAbsent           = ExitCode(5), ErrorCategory("duffel-container-absent")      // Container 404 -- the address is fine, there's just nothing there to read.
	ExitContainerCorrupt, ErrContainerCorrupt         = ExitCode(6), ErrorCategory("duffel-container-corrupt")     // Indicates a container read started, but the records in it were found to be malformed.
	ExitSourceUnreadable, ErrSourceUnreadable         = ExitCode(7), ErrorCategory("duffel-source-unreadable")     // Indicates the source dir for an archive or check couldn't be walked or read at all.  (Individual unreadable files inside it are handled best-effort and don't use this.)
	ExitTargetUncreatable, ErrTargetUncreatable       = ExitCode(8), ErrorCategory("duffel-target-uncreatable")    // Indicates the target dir for an unarchive couldn't be created or written.  (Individual uncreatable files inside it are handled best-effort and don't use this.)
	ExitCancelled, ErrCancelled                       = ExitCode(9), ErrorCategory("duffel-cancelled")             // The operation timed out or was cancelled.
	ExitRPCBreakdown, ErrRPCBreakdown                 = ExitCode(120), ErrorCategory("duffel-rpc-breakdown")       // Raised when running a remote duffel process and the control channel is lost, the process fails to start, or unrecognized messages are received.
	ExitTODO                                          = ExitCode(254)                                              // This exit code should be replaced with something more specific.
)

/*
	Translate an exit code back to the error category that pairs with it.

	This is used by clients supervising a duffel subprocess: the exit code
	SHOULD be redundant with the error category in the serialized result,
	and the supervisor checks that they align.  Codes with no pairing
	(including panics and signal deaths) map to ErrRPCBreakdown.
*/
func CategoryForExitCode(code ExitCode) ErrorCategory {
	switch code {
	case ExitUsage:
		return ErrUsage
	case ExitContainerUnavailable:
		return ErrContainerUnavailable
	case ExitContainerUnwritable:
		return ErrContainerUnwritable
	case ExitContainerAbsent:
		return ErrContainerAbsent
	case ExitContainerCorrupt:
		return ErrContainerCorrupt
	case ExitSourceUnreadable:
		return ErrSourceUnreadable
	case ExitTargetUncreatable:
		return ErrTargetUncreatable
	case ExitCancelled:
		return ErrCancelled
	default:
		return ErrRPCBreakdown
	}
}
