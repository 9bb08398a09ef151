/*
	Package duffelexecclient runs a `duffel` binary as a subprocess and
	exposes its operations through the same function signatures as the
	in-process transmat, by asking the child for `--format=json` output
	and decoding the event stream off its stdout.

	Use this when the caller shouldn't (or can't) link the transmat in:
	the child process is free to be a different build, a different
	version, or wrapped in sandboxing.
*/
package duffelexecclient

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/api"
)

var (
	_ api.ArchiveFunc   = ArchiveFunc
	_ api.UnarchiveFunc = UnarchiveFunc
	_ api.CheckFunc     = CheckFunc
	_ api.ScanFunc      = ScanFunc
)

func ArchiveFunc(
	ctx context.Context,
	sourcePath string,
	container api.ContainerAddr,
	monitor api.Monitor,
) (api.Report, error) {
	return invoke(ctx, ArchiveArgs(sourcePath, container), monitor)
}

func UnarchiveFunc(
	ctx context.Context,
	container api.ContainerAddr,
	targetPath string,
	monitor api.Monitor,
) (api.Report, error) {
	return invoke(ctx, UnarchiveArgs(container, targetPath), monitor)
}

func CheckFunc(
	ctx context.Context,
	sourcePath string,
	container api.ContainerAddr,
	monitor api.Monitor,
) (api.Report, error) {
	return invoke(ctx, CheckArgs(sourcePath, container), monitor)
}

func ScanFunc(
	ctx context.Context,
	container api.ContainerAddr,
	monitor api.Monitor,
) (api.Report, error) {
	return invoke(ctx, ScanArgs(container), monitor)
}

// Internal implementation of process invocation and message parsing,
//  shared by all four operations ("coincidentally", they all conclude
//  with the same report shape).
func invoke(
	ctx context.Context,
	args []string,
	monitor api.Monitor,
) (api.Report, error) {
	if monitor.Chan != nil {
		defer close(monitor.Chan)
	}

	// Spawn process.
	cmd := exec.Command("duffel", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return api.Report{}, Errorf(api.ErrRPCBreakdown, "fork duffel: failed to start: %s", err)
	}
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	if err = cmd.Start(); err != nil {
		return api.Report{}, Errorf(api.ErrRPCBreakdown, "fork duffel: failed to start: %s", err)
	}

	// Set up reaction to ctx.done: send a sig to the child proc.
	//  (This can't be a select in the reader loop below -- the pipe
	//  reads block -- and it can't be set up before cmd.Start -- the
	//  Process handle doesn't exist until then.)
	childDone := make(chan struct{})
	defer close(childDone)
	go func() {
		select {
		case <-ctx.Done():
			cmd.Process.Signal(os.Interrupt)
			time.Sleep(100 * time.Millisecond)
			cmd.Process.Signal(os.Kill)
		case <-childDone:
		}
	}()

	// Consume stdout, converting it to Monitor.Chan sends, until the
	//  final "result" message arrives (which is never forwarded; its
	//  values become our return).
	//  (We're relying on the child proc getting signal'd to close the
	//  stdout pipe and in turn release us here in case of ctx.done.)
	unmarshaller := refmt.NewUnmarshallerAtlased(json.DecodeOptions{}, stdout, api.Atlas)
	var result *api.Event_Result
	for result == nil {
		var evtSlot api.Event
		if err := unmarshaller.Unmarshal(&evtSlot); err != nil {
			if err == io.EOF {
				// In case of unexpected EOF, the child must have gone down
				//  without serializing a result; the wait below picks up
				//  the pieces (and has the stderr capture for messages).
				break
			}
			return api.Report{}, Errorf(api.ErrRPCBreakdown, "fork duffel: api parse error: %s", err)
		}
		if evtSlot.Result != nil {
			result = evtSlot.Result
			break
		}
		if monitor.Chan != nil {
			select {
			case monitor.Chan <- evtSlot:
			case <-ctx.Done():
			}
		}
	}

	// Wait for process complete, and reconcile the exit code with the
	//  result message we deserialized (or found missing).
	code, err := waitFor(cmd)
	if err != nil {
		return api.Report{}, Errorf(api.ErrRPCBreakdown, "fork duffel: wait error: %s (stderr: %q)", err, stderrBuf.String())
	}
	switch {
	case code != 0:
		// Nonzero exits come from argument parsing problems (or panics);
		//  no result message is expected.  Surface the paired category.
		return api.Report{}, Errorf(api.CategoryForExitCode(api.ExitCode(code)), "fork duffel: exited %d (stderr: %q)", code, stderrBuf.String())
	case result == nil:
		return api.Report{}, Errorf(api.ErrRPCBreakdown, "fork duffel: exited zero, but no clear result?! (stderr: %q)", stderrBuf.String())
	case result.Error != nil:
		// Operation failures ride inside the result -- the child exits
		//  zero for them -- and hand back the typed error unchanged.
		return result.Report, result.Error
	default:
		return result.Report, nil // This is the happy path return!
	}
}
