package ring

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap/zapcore"
)

// Continuation runs the rest of the host's own pipeline for the current
// request.
type Continuation func() error

// Request is the view of an inbound request that handlers consume. Treat it
// as immutable: derive variants with WithPath or Patch instead of assigning
// to its fields.
type Request struct {
	// URL is the path and query as the host received them, or as rewritten
	// by Mount.
	URL    string
	Path   string
	Query  url.Values
	Method string
	Header http.Header
	Body   any

	rawQuery string
	host     Host
	next     Continuation
}

// Host returns the host context the request was read from. It is for
// navigation only; handlers should not write to it.
func (r *Request) Host() Host {
	return r.host
}

// Context returns the host's request context. It is done once the client
// connection is gone.
func (r *Request) Context() context.Context {
	if r.host == nil {
		return context.Background()
	}
	return r.host.Context()
}

// Next runs the rest of the host's pipeline on its own goroutine and
// returns a Future for the response it produced, or nil if it produced
// none. Without a continuation it resolves to nil straight away.
func (r *Request) Next() *Future {
	if r == nil || r.host == nil || r.next == nil {
		return FromValue(nil)
	}
	host, next := r.host, r.next
	return Normalize(Go(func() (any, error) {
		if err := next(); err != nil {
			return nil, err
		}
		if resp := ToResponse(host); resp != nil {
			return resp, nil
		}
		return nil, nil
	}))
}

// WithPath returns a copy of r whose path is p. The query is kept.
func (r *Request) WithPath(p string) *Request {
	return r.Patch(func(nr *Request) {
		nr.Path = p
		nr.URL = p
		if nr.rawQuery != "" {
			nr.URL += "?" + nr.rawQuery
		}
	})
}

// Patch returns a copy of r with fn applied to it. r is left untouched.
func (r *Request) Patch(fn func(*Request)) *Request {
	nr := *r
	fn(&nr)
	return &nr
}

// EncodeQuery renders the request query back into a query string, with
// keys in sorted order.
func (r *Request) EncodeQuery() string {
	return r.Query.Encode()
}

// MarshalLogObject lets a Request be logged with zap.Object.
func (r *Request) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("method", r.Method)
	enc.AddString("url", r.URL)
	if r.Path != r.URL {
		enc.AddString("path", r.Path)
	}
	if size, ok := bodySize(r.Body); ok {
		enc.AddString("body", humanize.Bytes(uint64(size)))
	}
	if r.host != nil {
		enc.AddString("host", "<host context>")
	}
	return nil
}

// Inspect formats r for humans. Header values are listed in key order and
// the host context is not expanded.
func Inspect(r *Request) string {
	if r == nil {
		return "<nil request>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", r.Method, r.URL)
	if len(r.Header) > 0 {
		keys := make([]string, 0, len(r.Header))
		for k := range r.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" headers={")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", k, strings.Join(r.Header[k], ","))
		}
		b.WriteString("}")
	}
	if size, ok := bodySize(r.Body); ok {
		fmt.Fprintf(&b, " body=%s", humanize.Bytes(uint64(size)))
	} else if r.Body != nil {
		fmt.Fprintf(&b, " body=%T", r.Body)
	}
	if r.host != nil {
		b.WriteString(" ctx=<host context>")
	}
	return b.String()
}

func bodySize(body any) (int, bool) {
	switch b := body.(type) {
	case []byte:
		return len(b), true
	case string:
		return len(b), true
	}
	return 0, false
}
