package ring

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// State is the settlement state of a Future.
type State uint8

const (
	StatePending State = iota
	StateResolved
	StateRejected
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// ErrCancelled is returned by Await when the awaited Future was cancelled.
// Cancellation is not a rejection: callbacks registered with OnSettle never
// see it.
var ErrCancelled = errors.New("ring: computation cancelled")

// Outcome records how a Future settled.
type Outcome struct {
	State State
	Value any
	Err   error
}

type listener struct {
	fn func(Outcome)
}

// Future is a single-settlement computation that can be told to stop before
// it settles. Exactly one of Resolve, Reject or Cancel takes effect; later
// attempts report false and change nothing.
//
// A Future is safe for concurrent use.
type Future struct {
	mu        sync.Mutex
	state     State
	value     any
	err       error
	done      chan struct{}
	listeners []*listener
	hooks     []func()
}

// NewFuture creates a pending Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// FromValue returns a Future already resolved with v.
func FromValue(v any) *Future {
	f := NewFuture()
	f.Resolve(v)
	return f
}

// FromError returns a Future already rejected with err.
func FromError(err error) *Future {
	f := NewFuture()
	f.Reject(err)
	return f
}

// Resolve settles f with v. It reports whether this call settled f.
func (f *Future) Resolve(v any) bool {
	return f.settle(Outcome{State: StateResolved, Value: v})
}

// Reject settles f with err. It reports whether this call settled f.
func (f *Future) Reject(err error) bool {
	if err == nil {
		err = errors.New("ring: future rejected with a nil error")
	}
	return f.settle(Outcome{State: StateRejected, Err: err})
}

func (f *Future) settle(o Outcome) bool {
	f.mu.Lock()
	if f.state != StatePending {
		f.mu.Unlock()
		return false
	}
	f.state, f.value, f.err = o.State, o.Value, o.Err
	fns := make([]func(Outcome), 0, len(f.listeners))
	for _, l := range f.listeners {
		if l.fn != nil {
			fns = append(fns, l.fn)
			l.fn = nil
		}
	}
	f.listeners = nil
	f.hooks = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range fns {
		fn(o)
	}
	return true
}

// Cancel stops f if it is still pending. The hooks registered with OnCancel
// run synchronously, most recent first, before Cancel returns and before
// Done is closed. It reports whether this call cancelled f.
func (f *Future) Cancel() bool {
	f.mu.Lock()
	if f.state != StatePending {
		f.mu.Unlock()
		return false
	}
	f.state = StateCancelled
	hooks := f.hooks
	f.hooks = nil
	f.listeners = nil
	f.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
	close(f.done)
	return true
}

// OnSettle registers fn to run once when f resolves or rejects. If f has
// already done so, fn runs immediately on the calling goroutine. fn never
// runs for a cancelled Future. The returned func detaches fn.
func (f *Future) OnSettle(fn func(Outcome)) (detach func()) {
	f.mu.Lock()
	switch f.state {
	case StatePending:
		l := &listener{fn: fn}
		f.listeners = append(f.listeners, l)
		f.mu.Unlock()
		return func() {
			f.mu.Lock()
			l.fn = nil
			f.mu.Unlock()
		}
	case StateCancelled:
		f.mu.Unlock()
		return func() {}
	}
	o := Outcome{State: f.state, Value: f.value, Err: f.err}
	f.mu.Unlock()
	fn(o)
	return func() {}
}

// OnCancel registers fn to release resources if f is cancelled. On a Future
// that is already cancelled fn runs immediately; on one that resolved or
// rejected it is dropped.
func (f *Future) OnCancel(fn func()) {
	f.mu.Lock()
	switch f.state {
	case StatePending:
		f.hooks = append(f.hooks, fn)
		f.mu.Unlock()
	case StateCancelled:
		f.mu.Unlock()
		fn()
	default:
		f.mu.Unlock()
	}
}

// Done is closed once f is resolved, rejected, or cancelled. For a cancelled
// Future it is closed after the cancel hooks have returned.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// State reports the current state of f.
func (f *Future) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Outcome returns the settlement of f, or an Outcome in StatePending.
func (f *Future) Outcome() Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Outcome{State: f.state, Value: f.value, Err: f.err}
}

// Await blocks until f is done or ctx ends.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	o := f.Outcome()
	switch o.State {
	case StateResolved:
		return o.Value, nil
	case StateRejected:
		return nil, o.Err
	}
	return nil, ErrCancelled
}

// Map returns a Future resolved with fn applied to the value of f.
// Rejections pass through untouched. Cancelling either Future cancels the
// other.
func (f *Future) Map(fn func(any) (any, error)) *Future {
	out := NewFuture()
	out.OnCancel(func() { f.Cancel() })
	f.OnCancel(func() { out.Cancel() })
	f.OnSettle(func(o Outcome) {
		if o.State == StateRejected {
			out.Reject(o.Err)
			return
		}
		v, err := fn(o.Value)
		if err != nil {
			out.Reject(err)
			return
		}
		out.Resolve(v)
	})
	return out
}
