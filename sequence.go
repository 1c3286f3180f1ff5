package ring

import (
	"sync"

	"github.com/eapache/queue"
)

// Step is what a Sequence produces each time it is resumed: either a value
// to wait for (Done false) or its final result (Done true).
type Step struct {
	Value any
	Done  bool
}

// Sequence is a pausable unit of work. It yields values that the driver
// normalizes and waits for, and is resumed with their results.
//
// Next resumes the sequence with a value; the first call receives nil.
// Throw resumes it with an error, which the sequence may handle or return.
// Return finishes it early; it must release whatever the sequence holds
// before returning.
//
// A driver never calls these methods concurrently.
type Sequence interface {
	Next(v any) (Step, error)
	Throw(err error) (Step, error)
	Return()
}

// Drive runs seq and returns a Future for its final result. Values are
// awaited one at a time. Values that are already settled are handled by a
// loop rather than by recursion, so a long run of synchronous steps does not
// grow the stack.
//
// Cancelling the returned Future cancels the value currently awaited and
// calls seq.Return before Cancel returns.
func Drive(seq Sequence) *Future {
	d := &driver{
		seq:  seq,
		out:  NewFuture(),
		runq: queue.New(),
	}
	d.out.OnCancel(d.cancel)
	d.resume(Outcome{State: StateResolved})
	return d.out
}

type driver struct {
	seq Sequence
	out *Future

	// step serializes calls into seq.
	step sync.Mutex

	mu       sync.Mutex
	runq     *queue.Queue
	running  bool
	finished bool
	current  *Future
}

func (d *driver) resume(o Outcome) {
	d.mu.Lock()
	if d.finished {
		d.mu.Unlock()
		return
	}
	d.runq.Add(o)
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()
	d.run()
}

func (d *driver) run() {
	for {
		d.mu.Lock()
		if d.finished || d.runq.Length() == 0 {
			d.running = false
			d.mu.Unlock()
			return
		}
		o := d.runq.Remove().(Outcome)
		d.current = nil
		d.mu.Unlock()

		d.step.Lock()
		if d.isFinished() {
			d.step.Unlock()
			continue
		}
		step, err := d.advance(o)
		if err != nil || step.Done {
			d.finish()
			d.step.Unlock()
			if err != nil {
				d.out.Reject(err)
			} else {
				d.out.Resolve(step.Value)
			}
			continue
		}
		sub := Normalize(step.Value)
		d.mu.Lock()
		d.current = sub
		d.mu.Unlock()
		d.step.Unlock()

		// A yielded value cancelled by someone else still has to wake the
		// sequence up. When the driver itself cancels it, finished is
		// already set and resume ignores this.
		sub.OnCancel(func() { d.resume(Outcome{State: StateRejected, Err: ErrCancelled}) })
		sub.OnSettle(d.resume)
	}
}

func (d *driver) advance(o Outcome) (step Step, err error) {
	defer captureOnPanic(&err)
	if o.State == StateRejected {
		return d.seq.Throw(o.Err)
	}
	return d.seq.Next(o.Value)
}

func (d *driver) isFinished() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finished
}

func (d *driver) finish() {
	d.mu.Lock()
	d.finished = true
	d.current = nil
	d.mu.Unlock()
}

func (d *driver) cancel() {
	d.step.Lock()
	defer d.step.Unlock()
	d.mu.Lock()
	if d.finished {
		d.mu.Unlock()
		return
	}
	d.finished = true
	current := d.current
	d.current = nil
	d.mu.Unlock()

	if current != nil {
		current.Cancel()
	}
	d.seq.Return()
}
