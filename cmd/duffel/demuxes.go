package main

import (
	"context"
	"path/filepath"

	. "github.com/warpfork/go-errcat"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/transmat/duffel"
)

// One of the transmat operations, with all its arguments already bound.
type opThunk func(ctx context.Context, mon api.Monitor) (api.Report, error)

/*
	Maps the mode flags down to the single operation to run, with the
	positional args bound in.  Exactly one mode flag must be given, and
	the positional args must agree with that mode's shape; anything else
	is a usage error.
*/
func demuxOp(cli *baseCLI) (opThunk, error) {
	modes := 0
	for _, flagged := range []bool{cli.ModeArchive, cli.ModeUnarchive, cli.ModeCheck, cli.ModeScan} {
		if flagged {
			modes++
		}
	}
	if modes != 1 {
		return nil, Errorf(api.ErrUsage, "exactly one mode flag is required: -a (archive), -u (unarchive), -c (check), or -s (scan)")
	}
	switch {
	case cli.ModeArchive:
		if cli.Arg1 == "" || cli.Arg2 == "" {
			return nil, Errorf(api.ErrUsage, "archive mode takes two args: <sourceFolder> <archivePath>")
		}
		sourcePath, err := canonPath(cli.Arg1)
		if err != nil {
			return nil, err
		}
		container := api.ContainerAddr(cli.Arg2)
		return func(ctx context.Context, mon api.Monitor) (api.Report, error) {
			return duffel.Archive(ctx, sourcePath, container, mon)
		}, nil
	case cli.ModeUnarchive:
		if cli.Arg1 == "" || cli.Arg2 == "" {
			return nil, Errorf(api.ErrUsage, "unarchive mode takes two args: <archivePath> <targetFolder>")
		}
		container := api.ContainerAddr(cli.Arg1)
		targetPath, err := canonPath(cli.Arg2)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, mon api.Monitor) (api.Report, error) {
			return duffel.Unarchive(ctx, container, targetPath, mon)
		}, nil
	case cli.ModeCheck:
		if cli.Arg1 == "" || cli.Arg2 == "" {
			return nil, Errorf(api.ErrUsage, "check mode takes two args: <archivePath> <sourceFolder>")
		}
		container := api.ContainerAddr(cli.Arg1)
		sourcePath, err := canonPath(cli.Arg2)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, mon api.Monitor) (api.Report, error) {
			return duffel.Check(ctx, sourcePath, container, mon)
		}, nil
	case cli.ModeScan:
		if cli.Arg1 == "" || cli.Arg2 != "" {
			return nil, Errorf(api.ErrUsage, "scan mode takes one arg: <archivePath>")
		}
		container := api.ContainerAddr(cli.Arg1)
		return func(ctx context.Context, mon api.Monitor) (api.Report, error) {
			return duffel.Scan(ctx, container, mon)
		}, nil
	default:
		panic("unreachable")
	}
}

// Absolutize a user-given dir path.  (The transmat functions demand
//  absolute paths; accepting relative ones is a CLI-level convenience.)
func canonPath(arg string) (string, error) {
	pth, err := filepath.Abs(arg)
	if err != nil {
		return "", Errorf(api.ErrUsage, "cannot resolve path %q: %s", arg, err)
	}
	return pth, nil
}
