package ring

// Normalize converts whatever a handler returned into a Future:
//
//   - a *Future is used as is;
//   - a Sequence is driven with Drive;
//   - a Promise (or any <-chan Outcome) settles the Future with its Outcome;
//   - a non-nil error rejects the Future;
//   - anything else, nil included, resolves it immediately.
func Normalize(v any) *Future {
	switch v := v.(type) {
	case *Future:
		if v == nil {
			return FromValue(nil)
		}
		return v
	case Sequence:
		return Drive(v)
	case Promise:
		return fromChannel(v)
	case <-chan Outcome:
		return fromChannel(v)
	case chan Outcome:
		return fromChannel(v)
	case error:
		return FromError(v)
	}
	return FromValue(v)
}

// invoke calls h and normalizes its result. A panicking handler yields a
// rejected Future.
func invoke(h Handler, req *Request) (f *Future) {
	var err error
	defer func() {
		if err != nil {
			f = FromError(err)
		}
	}()
	defer setErrorOnPanic(&err)
	return Normalize(h(req))
}
