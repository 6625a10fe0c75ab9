package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsroute/fsroute/core/handler"
)

var (
	// ErrRouteNotFound is returned when no route accepts the request path.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMethodNotAllowed is returned when the path is routable under a
	// different method.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrNilResponse is surfaced when a handler returns a nil response.
	ErrNilResponse = errors.New("handler returned nil response")

	// ErrNoContextFactory is raised when a custom context type is used
	// without providing a factory.
	ErrNoContextFactory = errors.New("no context factory provided")
)

// InvalidPatternError reports a route definition that cannot be compiled or
// registered. It is fatal: a broken route table must never serve traffic,
// so the Must* registration helpers panic on it.
type InvalidPatternError struct {
	Pattern string
	Reason  string
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid route pattern %q: %s", e.Pattern, e.Reason)
}

// MethodNotAllowedError carries the methods that would have matched, for
// the Allow header. It unwraps to ErrMethodNotAllowed.
type MethodNotAllowedError struct {
	Allowed []string
}

func (e *MethodNotAllowedError) Error() string {
	return "method not allowed, allowed: " + strings.Join(e.Allowed, ", ")
}

func (e *MethodNotAllowedError) Unwrap() error {
	return ErrMethodNotAllowed
}

// Escape wraps a literal response in an error value. The dispatcher renders
// the carried response verbatim: a deliberate early-exit control transfer,
// not a failure, so it is never logged as one.
func Escape(resp handler.Response) error {
	return &escapedResponse{resp: resp}
}

type escapedResponse struct {
	resp handler.Response
}

func (e *escapedResponse) Error() string {
	return "escaped response"
}

// PanicError gives external error handlers access to a recovered panic's
// value and stack trace.
type PanicError interface {
	error
	// Value returns the original panic value.
	Value() any
	// Stack returns the stack trace captured at recovery.
	Stack() []byte
}

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func (e *panicError) Value() any {
	return e.value
}

func (e *panicError) Stack() []byte {
	return e.stack
}

// statusCode lets structured errors carry their own HTTP status.
type statusCode interface {
	StatusCode() int
}

// errorCode lets structured errors carry a machine-readable code.
type errorCode interface {
	ErrorCode() string
}
