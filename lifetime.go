package ring

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// TrackLifetime returns a Future that resolves with the time ctx ended.
// For a net/http request context that is when the client connection
// closes. Cancelling the Future stops tracking.
func TrackLifetime(ctx context.Context) *Future {
	f := NewFuture()
	stop := context.AfterFunc(ctx, func() { f.Resolve(time.Now()) })
	f.OnCancel(func() { stop() })
	return f
}

// Run calls h with req and races the result against lifetime. It returns
// the handler's response, or its error. If lifetime settles first the
// handler's Future is cancelled and Run returns (nil, nil). A nil lifetime
// never settles.
//
// A *CompositionError raised while the handler ran elsewhere, in Steps, Go
// or a sequence step, is panicked again on the caller's goroutine.
//
// When both are ready at once the handler wins: the close path only takes
// effect if it is the one that cancels the handler's Future.
func Run(h Handler, req *Request, lifetime *Future) (*Response, error) {
	resp, _, err := run(h, req, lifetime)
	return resp, err
}

// run is Run that also reports whether the lifetime won.
func run(h Handler, req *Request, lifetime *Future) (resp *Response, closed bool, err error) {
	task := invoke(h, req)

	var lifetimeDone <-chan struct{}
	if lifetime != nil {
		lifetimeDone = lifetime.Done()
	}

	select {
	case <-task.Done():
	case <-lifetimeDone:
		if task.Cancel() {
			return nil, true, nil
		}
		<-task.Done()
	}
	if lifetime != nil {
		lifetime.Cancel()
	}

	o := task.Outcome()
	switch o.State {
	case StateRejected:
		var ce *CompositionError
		if errors.As(o.Err, &ce) {
			panic(ce)
		}
		return nil, false, o.Err
	case StateCancelled:
		return nil, true, nil
	}
	resp, err = toResponse(o.Value)
	return resp, false, err
}
