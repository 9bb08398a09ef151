package api

/*
	This file is all serializable types used in Duffel
	to describe containers, operation outcomes, and storage locations.
*/

type (
	/*
		ContainerAddr strings describe where a container archive lives.

		The serial format is an opaque string, though they typically resemble
		(and for internal use, are parsed as) URLs.  A bare filesystem path
		is also accepted, and means the same as the equivalent "file://" URL.
	*/
	ContainerAddr string
)

/*
	Outcome enumerates the ways an operation can conclude short of error.

	Note that a check which finds differences concludes "mismatched" --
	that is an outcome, not an error; the error path is reserved for
	situations where the comparison itself could not be carried out.
*/
type Outcome string

const (
	Outcome_Packed     = Outcome("packed")     // A fresh container was written.
	Outcome_Skipped    = Outcome("skipped")    // The existing container still matched the source dir, so no write happened.
	Outcome_Unpacked   = Outcome("unpacked")   // The container's records were placed onto the filesystem.
	Outcome_Matched    = Outcome("matched")    // The container and the source dir agree.
	Outcome_Mismatched = Outcome("mismatched") // The container and the source dir disagree (or the container is corrupt).
	Outcome_Scanned    = Outcome("scanned")    // The container was tallied without touching the rest of the filesystem.
)

/*
	Report sums up what an operation did.

	Every operation returns one.  The counts describe the records the
	operation actually handled, so a check which bails at the first
	mismatch reports how far it got, and operations with best-effort
	error handling tally the entries they had to pass over in `Skips`.
*/
type Report struct {
	Outcome Outcome `refmt:"outcome"`
	Records int     `refmt:"records"`         // Count of records written, placed, compared, or tallied.
	Bytes   int64   `refmt:"bytes"`           // Total payload bytes in those records.
	Skips   int     `refmt:"skips,omitempty"` // Count of entries passed over by best-effort handling.
}
