package ring

import (
	"github.com/pkg/errors"
)

// ErrSequenceReturned is what Yield reports once the sequence has been
// finished early. The function should clean up and return.
var ErrSequenceReturned = errors.New("ring: sequence returned early")

// Yield suspends a Steps function until v settles and returns its value or
// error.
type Yield func(v any) (any, error)

// Steps turns a plain function into a Sequence. The function runs on its own
// goroutine but only ever runs while the driver is waiting for it, so it
// behaves like a coroutine: each call to yield hands control back to the
// driver.
//
// When the sequence is finished early, the pending yield returns
// ErrSequenceReturned, and Return waits for the function to exit so that
// its deferred calls have run.
func Steps(fn func(yield Yield) (any, error)) Sequence {
	return &steps{fn: fn}
}

type stepMsg struct {
	step Step
	err  error
}

type steps struct {
	fn      func(Yield) (any, error)
	started bool
	done    bool
	resume  chan Outcome
	yielded chan stepMsg
	exited  chan struct{}

	// closing is only touched by the function's goroutine.
	closing bool
}

func (s *steps) start() {
	s.started = true
	s.resume = make(chan Outcome)
	s.yielded = make(chan stepMsg, 1)
	s.exited = make(chan struct{})
	go func() {
		defer close(s.exited)
		var msg stepMsg
		func() {
			defer captureOnPanic(&msg.err)
			v, err := s.fn(s.yield)
			msg = stepMsg{step: Step{Value: v, Done: true}, err: err}
		}()
		if msg.err != nil {
			msg.step = Step{Done: true}
		}
		s.yielded <- msg
	}()
}

func (s *steps) yield(v any) (any, error) {
	if s.closing {
		return nil, ErrSequenceReturned
	}
	s.yielded <- stepMsg{step: Step{Value: v}}
	o := <-s.resume
	switch o.State {
	case StateCancelled:
		s.closing = true
		return nil, ErrSequenceReturned
	case StateRejected:
		return nil, o.Err
	}
	return o.Value, nil
}

func (s *steps) Next(v any) (Step, error) {
	return s.send(Outcome{State: StateResolved, Value: v})
}

func (s *steps) Throw(err error) (Step, error) {
	if !s.started {
		s.done = true
		return Step{Done: true}, err
	}
	return s.send(Outcome{State: StateRejected, Err: err})
}

func (s *steps) send(o Outcome) (Step, error) {
	if s.done {
		return Step{Done: true}, nil
	}
	if !s.started {
		s.start()
	} else {
		s.resume <- o
	}
	msg := <-s.yielded
	if msg.step.Done {
		s.done = true
		<-s.exited
	}
	return msg.step, msg.err
}

func (s *steps) Return() {
	if !s.started || s.done {
		s.done = true
		return
	}
	s.done = true
	s.resume <- Outcome{State: StateCancelled}
	<-s.exited
}
