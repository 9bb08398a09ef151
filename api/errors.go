package api

import (
	"fmt"

	"github.com/warpfork/go-errcat"
)

var _ errcat.Error = &Error{}

/*
	Error is a concrete, serializable implementation of the `errcat.Error`
	interface.

	Every error raised by duffel operations is speakable in this form, and
	this is the form errors take on the wire: the category strings are the
	`Err*` constants defined in this package, and the exit code of a duffel
	process pairs with the category of the error it reported.
*/
type Error struct {
	Category_ ErrorCategory     `refmt:"category"`
	Message_  string            `refmt:"msg"`
	Details_  map[string]string `refmt:"details,omitempty"`
}

func (e *Error) Category() interface{}      { return e.Category_ }
func (e *Error) Message() string            { return e.Message_ }
func (e *Error) Details() map[string]string { return e.Details_ }
func (e *Error) Error() string              { return e.Message_ }

/*
	Convert any error to our concrete Error type, keeping the category and
	details if it was an errcat error already.

	Errors of unrecognized type get categorized ErrRPCBreakdown: by the time
	an error is being converted for the wire, "we don't know what happened"
	is a protocol failure.  Nil converts to nil.
*/
func ToError(err error) *Error {
	if err == nil {
		return nil
	}
	switch e2 := err.(type) {
	case *Error:
		return e2
	case errcat.Error:
		return &Error{
			Category_: ErrorCategory(fmt.Sprintf("%s", e2.Category())),
			Message_:  e2.Message(),
			Details_:  e2.Details(),
		}
	default:
		return &Error{
			Category_: ErrRPCBreakdown,
			Message_:  err.Error(),
		}
	}
}

func (r *Event_Result) SetError(err error) {
	r.Error = ToError(err)
}
