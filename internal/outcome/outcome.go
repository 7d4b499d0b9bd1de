// Package outcome maps service results onto what the HTTP and tool front
// ends report, so both surfaces agree on every failure.
package outcome

import (
	"errors"
	"net/http"

	"github.com/davidjrh/ToDoFunction/internal/service"
)

// Kind classifies the result of one adapter call.
type Kind string

const (
	OK              Kind = "ok"
	BadRequest      Kind = "bad_request"
	InvalidArgument Kind = "invalid_argument"
	NotFound        Kind = "not_found"
	Internal        Kind = "internal"
)

// ErrBadRequest marks a request the adapter could not parse: a malformed id
// or body. It never comes from the service.
var ErrBadRequest = errors.New("bad request")

const notFoundMessage = "Todo not found"

// Classify returns the Kind for err. Anything the service did not raise as a
// domain error is Internal.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, ErrBadRequest):
		return BadRequest
	case errors.Is(err, service.ErrInvalidArgument):
		return InvalidArgument
	case errors.Is(err, service.ErrNotFound):
		return NotFound
	default:
		return Internal
	}
}

// HTTPStatus is the status code the HTTP front end uses for k.
func (k Kind) HTTPStatus() int {
	switch k {
	case OK:
		return http.StatusOK
	case BadRequest, InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Failure is a classified error ready for either transport.
type Failure struct {
	Kind Kind
	// Message is safe to show to any client.
	Message string
	// Details carries the underlying error text for Internal failures.
	Details string
}

// Describe classifies err. action names what was attempted, e.g.
// "retrieve todo", and is used in the Internal message.
func Describe(err error, action string) Failure {
	kind := Classify(err)
	switch kind {
	case NotFound:
		return Failure{Kind: kind, Message: notFoundMessage}
	case BadRequest, InvalidArgument:
		return Failure{Kind: kind, Message: err.Error()}
	default:
		f := Failure{Kind: Internal, Message: "Failed to " + action}
		if err != nil {
			f.Details = err.Error()
		}
		return f
	}
}

// Absent is the failure reported when a delete found nothing to remove. The
// service treats that as a normal false result; only the adapters turn it
// into a not-found response.
func Absent() Failure {
	return Failure{Kind: NotFound, Message: notFoundMessage}
}

// Malformed reports a transport-level bad request with msg as its message.
func Malformed(msg string) error {
	return &badRequestError{msg: msg}
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func (e *badRequestError) Unwrap() error { return ErrBadRequest }

// ToolError is the object the tool front end returns instead of a record.
type ToolError struct {
	Error   string `json:"error"`
	Kind    Kind   `json:"kind"`
	Details string `json:"details,omitempty"`
	ID      *int64 `json:"id,omitempty"`
}

// Tool renders f for the tool front end. id is echoed back when the failure
// concerns a specific record.
func (f Failure) Tool(id *int64) ToolError {
	te := ToolError{Error: f.Message, Kind: f.Kind, Details: f.Details}
	if f.Kind == NotFound {
		te.ID = id
	}
	return te
}
