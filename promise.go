package ring

// Promise carries the result of work that has no way to be stopped. It
// delivers exactly one Outcome. When the Future built from a Promise is
// cancelled, the pipeline stops waiting for that Outcome and ignores it; the
// work itself runs to completion.
type Promise <-chan Outcome

// Go runs fn on a new goroutine and returns a Promise for its result. A
// panic in fn rejects the Promise.
func Go(fn func() (any, error)) Promise {
	ch := make(chan Outcome, 1)
	go func() {
		var (
			v   any
			err error
		)
		func() {
			defer captureOnPanic(&err)
			v, err = fn()
		}()
		if err != nil {
			ch <- Outcome{State: StateRejected, Err: err}
			return
		}
		ch <- Outcome{State: StateResolved, Value: v}
	}()
	return ch
}

func fromChannel(ch <-chan Outcome) *Future {
	f := NewFuture()
	select {
	case o, ok := <-ch:
		settleFrom(f, o, ok)
		return f
	default:
	}
	stop := make(chan struct{})
	f.OnCancel(func() { close(stop) })
	go func() {
		select {
		case o, ok := <-ch:
			settleFrom(f, o, ok)
		case <-stop:
		}
	}()
	return f
}

func settleFrom(f *Future, o Outcome, ok bool) {
	if !ok {
		f.Resolve(nil)
		return
	}
	switch o.State {
	case StateRejected:
		f.Reject(o.Err)
	case StateCancelled:
		f.Cancel()
	default:
		f.Resolve(o.Value)
	}
}
