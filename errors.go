package ring

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/pkg/errors"
)

var (
	// ErrUnexpectedResult is wrapped by the error returned when a handler
	// settles with something that is not a response.
	ErrUnexpectedResult = errors.New("ring: unexpected handler result")

	// ErrNextCalledTwice is returned by a continuation invoked more than once
	// for the same request.
	ErrNextCalledTwice = errors.New("ring: next called more than once")
)

// CompositionError reports a middleware that did not produce a handler.
// It is raised with panic while the chain is being built: it is a defect in
// the code that assembled the pipeline, not a request failure.
type CompositionError struct {
	Index int
	Name  string
	Msg   string
}

func (e *CompositionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("ring: middleware %s %s", e.Name, e.Msg)
	}
	return fmt.Sprintf("ring: middleware #%d (%s) %s", e.Index, e.Name, e.Msg)
}

type statusError struct {
	cause error
	code  int
}

func (err *statusError) Error() string { return err.cause.Error() }
func (err *statusError) Cause() error  { return err.cause }
func (err *statusError) Unwrap() error { return err.cause }

// WithStatus annotates err with the HTTP status the host should answer
// with. A nil err stays nil.
func WithStatus(err error, code int) error {
	if err == nil {
		return nil
	}
	return &statusError{cause: err, code: code}
}

// NotFound annotates an error as giving a 404.
func NotFound(err error) error { return WithStatus(err, http.StatusNotFound) }

// BadRequest annotates an error as giving a 400.
func BadRequest(err error) error { return WithStatus(err, http.StatusBadRequest) }

// Forbidden annotates an error as giving a 403.
func Forbidden(err error) error { return WithStatus(err, http.StatusForbidden) }

// StatusCode returns the status attached with WithStatus, or 500.
func StatusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return http.StatusInternalServerError
}

type panicError struct {
	msg   string
	r     any
	stack string
}

func (err panicError) Error() string {
	return "panic: " + err.msg
}

// setErrorOnPanic is deferred by code that runs user handlers on the
// request goroutine. A panic that carries a *CompositionError is re-raised:
// it marks a broken chain.
func setErrorOnPanic(ep *error) {
	r := recover()
	if r == nil {
		return
	}
	if ce, ok := r.(*CompositionError); ok {
		panic(ce)
	}
	*ep = panicToError(r)
}

// captureOnPanic is setErrorOnPanic for code that may run on a goroutine of
// its own, where a panic cannot be recovered by the host. A
// *CompositionError becomes the error itself and run raises it again on
// the request goroutine.
func captureOnPanic(ep *error) {
	r := recover()
	if r == nil {
		return
	}
	if ce, ok := r.(*CompositionError); ok {
		*ep = ce
		return
	}
	*ep = panicToError(r)
}

func panicToError(r any) error {
	return errors.WithStack(panicError{
		msg:   fmt.Sprint(r),
		r:     r,
		stack: string(debug.Stack()),
	})
}

// RecoverValue returns what recover() produced when a handler panicked, or
// nil if err does not come from a panic.
func RecoverValue(err error) any {
	var pe panicError
	if errors.As(err, &pe) {
		return pe.r
	}
	return nil
}

// RecoverStack returns the stack captured when a handler panicked.
func RecoverStack(err error) string {
	var pe panicError
	if errors.As(err, &pe) {
		return pe.stack
	}
	return ""
}
