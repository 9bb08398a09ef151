/*
	Helpers for loading contextual config.

	Config for Duffel means "things that are the host machine operator's concerns".
	So, things like default output formats and progress rates are considered "config",
	as opposed to parameters for function calls.
	(This distinction is meaningful because config is generally not passed in calls,
	because it wouldn't be correct to do so when using commands via remote RPC; in
	such a situation, the *remote* Duffel will read its *local* config in order to
	comply with the operator's rules there on that machine and environment.)
*/
package config

import (
	"os"
	"time"
)

/*
	Return the output serialization format the CLI should default to.

	The default value is `"dumb"`;
	this can be overriden by the `DUFFEL_FORMAT` environment variable
	(any value other than `"json"` or `"dumb"` is ignored).
*/
func GetDefaultFormat() string {
	switch format := os.Getenv("DUFFEL_FORMAT"); format {
	case "json", "dumb":
		return format
	default:
		return "dumb"
	}
}

/*
	Return how frequently progress events should be emitted.

	The default value is one second;
	this can be overriden by the `DUFFEL_PROGRESS_RATE` environment variable,
	parsed as a duration (e.g. "250ms").  Unparsable values are ignored.
*/
func GetProgressRate() time.Duration {
	d, err := time.ParseDuration(os.Getenv("DUFFEL_PROGRESS_RATE"))
	if err != nil || d <= 0 {
		return 1 * time.Second
	}
	return d
}
