package ring

import (
	"context"
	"net/http"
	"net/url"
)

// Host is the mutable per-request context owned by the web server. The
// pipeline reads the request side when it starts and writes the response
// side at most once, when it finishes.
type Host interface {
	// Context is done when the client connection closes.
	Context() context.Context

	RequestURL() string
	RequestMethod() string
	RequestHeader() http.Header
	RequestBody() any

	// Status reports UnhandledStatus until something sets one.
	Status() int
	ResponseHeader() http.Header
	ResponseBody() any

	SetStatus(code int)
	SetHeader(key string, values ...string)
	SetBody(body any)
}

// ToRequest reads a Request off host without modifying it. next is the
// host's own continuation and may be nil.
func ToRequest(host Host, next Continuation) *Request {
	raw := host.RequestURL()
	req := &Request{
		URL:    raw,
		Path:   raw,
		Query:  url.Values{},
		Method: host.RequestMethod(),
		Header: host.RequestHeader(),
		Body:   host.RequestBody(),
		host:   host,
		next:   next,
	}
	if u, err := url.ParseRequestURI(raw); err == nil {
		req.Path = u.Path
		req.rawQuery = u.RawQuery
		req.Query = u.Query()
	}
	return req
}

// IsAwaiting reports whether host still has no response: the status is
// UnhandledStatus and there is no body.
func IsAwaiting(host Host) bool {
	return host.Status() == UnhandledStatus && host.ResponseBody() == nil
}

// ApplyResponse copies the fields present in resp onto host. It does
// nothing when resp is nil or unsettled, or when host already has a
// response.
func ApplyResponse(host Host, resp *Response) bool {
	if !resp.Settled() || !IsAwaiting(host) {
		return false
	}
	if resp.Status > 0 {
		host.SetStatus(resp.Status)
	}
	for key, values := range resp.Header {
		host.SetHeader(key, values...)
	}
	if resp.Body != nil {
		host.SetBody(resp.Body)
	}
	return true
}

// ToResponse describes the response host currently holds, or returns nil
// while it is still awaiting one.
func ToResponse(host Host) *Response {
	if IsAwaiting(host) {
		return nil
	}
	return &Response{
		Status: host.Status(),
		Header: host.ResponseHeader().Clone(),
		Body:   host.ResponseBody(),
	}
}
