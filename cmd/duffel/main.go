package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/polydawn/refmt"
	"github.com/polydawn/refmt/json"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/polydawn/duffel/api"
	"github.com/polydawn/duffel/config"
)

/*
	Output serialization formats
*/
const (
	FmtJson = "json"
	FmtDumb = "dumb"
)

type baseCLI struct {
	ModeArchive   bool          // Mode flag: pack a dir into a container
	ModeUnarchive bool          // Mode flag: unpack a container into a dir
	ModeCheck     bool          // Mode flag: compare a container against a dir
	ModeScan      bool          // Mode flag: tally a container's records
	Format        string        // Output api format, eg. json
	ProgressRate  time.Duration // How frequently to emit progress notification
	Arg1          string        // First positional arg (meaning depends on mode)
	Arg2          string        // Second positional arg (meaning depends on mode)
}

/*
	Blocks until a sigint is received, then calls cancel.
*/
func CancelOnInterrupt(cancel context.CancelFunc) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	<-signalChan
	cancel()
	close(signalChan)
}

func main() {
	ctx := context.Background()
	exitCode := Main(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	os.Exit(int(exitCode))
}

func Main(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) api.ExitCode {
	ctx, cancel := context.WithCancel(ctx)
	go CancelOnInterrupt(cancel)

	cli := baseCLI{}

	app := kingpin.New("duffel", "Pack a dir's files flat into one container file, and get them back out again.")
	app.HelpFlag.Short('h')

	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	app.Flag("archive", "Pack the files under a source dir into a container").
		Short('a').
		BoolVar(&cli.ModeArchive)
	app.Flag("unarchive", "Unpack a container's records into a target dir").
		Short('u').
		BoolVar(&cli.ModeUnarchive)
	app.Flag("check", "Report whether a container still matches a source dir").
		Short('c').
		BoolVar(&cli.ModeCheck)
	app.Flag("scan", "Tally the records in a container").
		Short('s').
		BoolVar(&cli.ModeScan)
	app.Flag("format", "Output api format").
		Default(config.GetDefaultFormat()).
		EnumVar(&cli.Format, FmtJson, FmtDumb)
	app.Flag("progress-rate", "How frequently to emit progress notification").
		Default(config.GetProgressRate().String()).
		DurationVar(&cli.ProgressRate)
	app.Arg("arg1", "With -a: the source dir.  With -u, -c, or -s: the container path.").
		StringVar(&cli.Arg1)
	app.Arg("arg2", "With -a: the container path.  With -u: the target dir.  With -c: the source dir.  With -s: nothing.").
		StringVar(&cli.Arg2)

	var termErr error
	app.Terminate(func(status int) {
		termErr = fmt.Errorf("parsing error: %d\n", status)
	})
	_, err := app.Parse(args[1:])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return api.ExitUsage
	}
	if termErr != nil {
		fmt.Fprintln(stderr, termErr)
		return api.ExitUsage
	}

	op, err := demuxOp(&cli)
	if err != nil {
		fmt.Fprintln(stderr, err)
		app.Usage(nil)
		return api.ExitUsage
	}

	// Run the op with a monitor channel attached; the render goroutine
	//  turns the events into output in the chosen format as they happen.
	//  The op closes the channel when it's done, releasing the renderer.
	evtChan := make(chan api.Event)
	renderDone := renderEvents(cli, evtChan, stdout, stderr)
	report, err := op(ctx, api.Monitor{Chan: evtChan})
	<-renderDone
	SerializeResult(cli.Format, report, err, stdout, stderr)

	// Data problems do not vary the exit code: the serialized result is
	//  the error reporting surface, and only usage problems exit nonzero.
	return api.ExitSuccess
}

/*
	Consumes monitor events, rendering each as it arrives: in json
	format every event is marshalled onto stdout to form the api stream;
	in dumb format log lines print to stderr for humans and progress
	events are elided.  The returned channel closes once the event
	channel has been fully drained.
*/
func renderEvents(cli baseCLI, evtChan <-chan api.Event, stdout, stderr io.Writer) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		marshaller := refmt.NewMarshallerAtlased(json.EncodeOptions{}, stdout, api.Atlas)
		var lastProgress time.Time
		for evt := range evtChan {
			// Progress is throttled in either format: a container with a
			//  million tiny records shouldn't yield a million messages.
			if evt.Progress != nil {
				if time.Since(lastProgress) < cli.ProgressRate {
					continue
				}
				lastProgress = time.Now()
			}
			switch cli.Format {
			case FmtJson:
				if err := marshaller.Marshal(&evt); err != nil {
					panic(err)
				}
			case FmtDumb:
				if evt.Log != nil && evt.Log.Level >= api.LogInfo {
					fmt.Fprintf(stderr, "%s %s\n", logLabel(evt.Log.Level), evt.Log.Msg)
				}
			default:
				panic(fmt.Errorf("duffel: invalid format %s", cli.Format))
			}
		}
	}()
	return done
}

func logLabel(lvl api.LogLevel) string {
	switch lvl {
	case api.LogError:
		return "error:"
	case api.LogWarn:
		return "warn:"
	case api.LogInfo:
		return "info:"
	default:
		return "debug:"
	}
}

func SerializeResult(format string, report api.Report, resultErr error, stdout io.Writer, stderr io.Writer) {
	result := &api.Event_Result{
		Report: report,
	}
	result.SetError(resultErr)
	ev := api.Event{Result: result}
	switch format {
	case FmtJson:
		marshaller := refmt.NewMarshallerAtlased(json.EncodeOptions{}, stdout, api.Atlas)
		err := marshaller.Marshal(&ev)
		if err != nil {
			panic(err)
		}
	case FmtDumb:
		if resultErr != nil {
			fmt.Fprintln(stderr, resultErr)
			return
		}
		switch report.Outcome {
		case api.Outcome_Packed:
			fmt.Fprintln(stdout, "Archiving complete.")
		case api.Outcome_Skipped:
			fmt.Fprintln(stdout, "Archive already exists and contains identical files. Skipping archiving.")
		case api.Outcome_Unpacked:
			fmt.Fprintln(stdout, "Unarchiving complete.")
		case api.Outcome_Matched:
			fmt.Fprintln(stdout, "Archive matches the folder.")
		case api.Outcome_Mismatched:
			fmt.Fprintln(stdout, "Archive does not match the folder.")
		case api.Outcome_Scanned:
			fmt.Fprintf(stdout, "Scan complete: %d records, %d payload bytes.\n", report.Records, report.Bytes)
		default:
			panic(fmt.Errorf("duffel: unrecognized outcome %q", report.Outcome))
		}
	default:
		panic(fmt.Errorf("duffel: invalid format %s", format))
	}
}
