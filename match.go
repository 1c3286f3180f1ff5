package ring

// Predicate decides whether a request belongs to a branch of the pipeline.
// It must not modify the request.
type Predicate func(*Request) bool

// Match runs mw when pred holds for the request. Otherwise the request,
// the same pointer, goes straight to the continuation and mw is skipped.
// mw is built once, against the continuation Match itself receives.
func Match(pred Predicate, mw Middleware) Middleware {
	if pred == nil {
		panic(&CompositionError{Index: -1, Name: "match", Msg: "has a nil predicate"})
	}
	return func(next Handler) Handler {
		inner := ToHandler(next, mw)
		return func(req *Request) any {
			if pred(req) {
				return inner(req)
			}
			return next(req)
		}
	}
}
