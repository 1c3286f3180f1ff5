package ring

import (
	"github.com/douglasgreyling/ring/internal/naming"
)

// Handler answers a Request. It may return a *Response, a Response, a
// map[string]any response shape, nil (no opinion), an error, a *Future, a
// Promise or a Sequence. Normalize turns any of these into a Future.
type Handler func(*Request) any

// Middleware wraps a Handler and may run code before and/or after the
// handler it wraps. Middlewares compose by wrapping: the first one given to
// Compose is the outermost.
//
// Example middleware:
//
//	func timing(next ring.Handler) ring.Handler {
//	    return func(req *ring.Request) any {
//	        start := time.Now()
//	        return ring.Normalize(next(req)).Map(func(v any) (any, error) {
//	            log.Printf("%s took %v", req.Path, time.Since(start))
//	            return v, nil
//	        })
//	    }
//	}
type Middleware func(next Handler) Handler

// Compose folds mws into one Middleware. Compose(a, b)(h) is a(b(h)).
// Composing nothing gives the identity middleware.
func Compose(mws ...Middleware) Middleware {
	for i, mw := range mws {
		if mw == nil {
			panic(&CompositionError{Index: i, Name: "<nil>", Msg: "is nil"})
		}
	}
	return func(next Handler) Handler {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			h = apply(i, mws[i], h)
		}
		return h
	}
}

// ToHandler applies mw to next. It panics with a *CompositionError if mw
// does not return a Handler.
func ToHandler(next Handler, mw Middleware) Handler {
	return apply(-1, mw, next)
}

func apply(i int, mw Middleware, next Handler) Handler {
	if mw == nil {
		panic(&CompositionError{Index: i, Name: "<nil>", Msg: "is nil"})
	}
	h := mw(next)
	if h == nil {
		panic(&CompositionError{Index: i, Name: naming.FuncName(mw), Msg: "returned a nil handler"})
	}
	return h
}

// Chain composes mws in front of Forward, so a request nobody answers is
// passed on to the host's own continuation.
func Chain(mws ...Middleware) Handler {
	return ToHandler(Forward, Compose(mws...))
}

// Endpoint turns a Handler into a terminal Middleware that never calls
// next.
func Endpoint(h Handler) Middleware {
	return func(Handler) Handler { return h }
}

// Forward runs the host's continuation and answers with whatever it
// produced.
func Forward(req *Request) any {
	return req.Next()
}

// NotHandled answers with no opinion.
func NotHandled(*Request) any {
	return nil
}
