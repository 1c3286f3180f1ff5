package ring

import (
	"strconv"

	"github.com/douglasgreyling/ring/internal/segments"
)

// Mount runs mw for requests whose path starts with prefix, compared
// segment by segment. The inner handler sees a new Request with the prefix
// removed: mounting at "/api/v1" turns "/api/v1/users/5" into "users/5"
// and "/api/v1" into "". Other requests fall through to the continuation
// unchanged.
func Mount(prefix string, mw Middleware) Middleware {
	return MountSegments(segments.Split(prefix), mw)
}

// MountSegments is Mount with the prefix already split. Every segment must
// be non-empty and must not contain a slash.
func MountSegments(prefix []string, mw Middleware) Middleware {
	if i := segments.Validate(prefix); i >= 0 {
		panic(&CompositionError{Index: -1, Name: "mount",
			Msg: "has an invalid prefix segment " + strconv.Quote(prefix[i])})
	}
	prefix = append([]string(nil), prefix...)
	return func(next Handler) Handler {
		inner := ToHandler(next, mw)
		return func(req *Request) any {
			rest, ok := segments.TrimPrefix(req.Path, prefix)
			if !ok {
				return next(req)
			}
			return inner(req.WithPath(segments.Join(rest)))
		}
	}
}

// Group mounts the composition of mws at prefix.
func Group(prefix string, mws ...Middleware) Middleware {
	return Mount(prefix, Compose(mws...))
}
