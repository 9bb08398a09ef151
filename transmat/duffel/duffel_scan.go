package duffel

import (
	"context"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/depot"
	nilFS "github.com/polydawn/duffel/fs/nilfs"
)

var (
	_ api.ScanFunc = Scan
)

/*
	Scan decodes a whole container without writing anything anywhere,
	reporting the record census.  It's the cheap way to ask "is this a
	well-formed container, and what's in it": the records run through
	the same placing loop as Unarchive, just against a filesystem that
	discards everything.

	Corrupt containers error with ErrContainerCorrupt; absent ones with
	ErrContainerAbsent.
*/
func Scan(
	ctx context.Context, // Long-running call.  Cancellable.
	container api.ContainerAddr, // Container to read records out of.
	mon api.Monitor, // Optionally: callbacks for progress monitoring.
) (_ api.Report, err error) {
	if mon.Chan != nil {
		defer close(mon.Chan)
	}
	defer RequireErrorHasCategory(&err, api.ErrorCategory(""))

	// Dial the depot and open the container.
	ctrl, err := depot.NewController(container)
	if err != nil {
		return api.Report{}, err
	}
	rc, err := ctrl.OpenReader()
	if err != nil {
		return api.Report{}, err
	}
	defer rc.Close()

	// Run the unpack loop against a filesystem that stores nothing.
	report, err := unpackContainer(ctx, nilFS.New(), container, rc, mon)
	if err != nil {
		return api.Report{}, err
	}
	report.Outcome = api.Outcome_Scanned
	return report, nil
}
