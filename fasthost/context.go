// Package fasthost runs a ring Pipeline on fasthttp.
package fasthost

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/douglasgreyling/ring"
	"github.com/valyala/fasthttp"
)

// Context is the fasthttp Host. Unlike the net/http Context it writes
// straight onto the fasthttp response, which is itself buffered until the
// handler returns.
type Context struct {
	RequestCtx *fasthttp.RequestCtx

	ctx      shutdownContext
	mu       sync.Mutex
	header   http.Header
	body     any
	explicit bool
}

// NewContext wraps rc, which must belong to a server or have been set up
// with Init. It resets the response to the unhandled state: status 404 and
// no body.
func NewContext(rc *fasthttp.RequestCtx) *Context {
	rc.Response.ResetBody()
	rc.SetStatusCode(ring.UnhandledStatus)
	return &Context{
		RequestCtx: rc,
		ctx:        shutdownContext{Context: context.Background(), done: rc.Done()},
	}
}

// Context is done when the server shuts down. fasthttp gives no signal for
// a single closed connection.
func (c *Context) Context() context.Context {
	return c.ctx
}

// shutdownContext keeps the server's shutdown channel read off the
// RequestCtx, which fasthttp recycles once the handler returns.
type shutdownContext struct {
	context.Context
	done <-chan struct{}
}

func (c shutdownContext) Done() <-chan struct{} {
	return c.done
}

func (c shutdownContext) Err() error {
	select {
	case <-c.done:
		return context.Canceled
	default:
		return nil
	}
}

func (c *Context) RequestURL() string {
	return string(c.RequestCtx.RequestURI())
}

func (c *Context) RequestMethod() string {
	return string(c.RequestCtx.Method())
}

func (c *Context) RequestHeader() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.header == nil {
		c.header = make(http.Header)
		c.RequestCtx.Request.Header.VisitAll(func(k, v []byte) {
			key := http.CanonicalHeaderKey(string(k))
			c.header[key] = append(c.header[key], string(v))
		})
	}
	return c.header
}

// RequestBody returns a copy of the request body, or nil if it is empty.
func (c *Context) RequestBody() any {
	b := c.RequestCtx.PostBody()
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

func (c *Context) Status() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.RequestCtx.Response.StatusCode()
}

// ResponseHeader returns a copy of the response headers.
func (c *Context) ResponseHeader() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := make(http.Header)
	c.RequestCtx.Response.Header.VisitAll(func(k, v []byte) {
		key := http.CanonicalHeaderKey(string(k))
		h[key] = append(h[key], string(v))
	})
	return h
}

// ResponseBody returns the value given to SetBody, or a copy of what a
// fasthttp handler wrote, or nil.
func (c *Context) ResponseBody() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.body != nil {
		return c.body
	}
	if b := c.RequestCtx.Response.Body(); len(b) > 0 {
		return append([]byte(nil), b...)
	}
	return nil
}

func (c *Context) SetStatus(code int) {
	c.mu.Lock()
	c.RequestCtx.SetStatusCode(code)
	c.explicit = true
	c.mu.Unlock()
}

func (c *Context) SetHeader(key string, values ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := &c.RequestCtx.Response.Header
	h.Del(key)
	for _, v := range values {
		h.Add(key, v)
	}
}

// SetBody encodes body onto the response. Byte slices and strings are
// written as they are and readers are streamed. Anything else is encoded
// as JSON. If no status was set the status becomes 200.
func (c *Context) SetBody(body any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rc := c.RequestCtx
	c.body = body
	if !c.explicit && body != nil {
		rc.SetStatusCode(fasthttp.StatusOK)
	}
	switch b := body.(type) {
	case nil:
		rc.Response.ResetBody()
	case []byte:
		rc.SetBody(b)
	case string:
		rc.SetBodyString(b)
	case io.Reader:
		rc.SetBodyStream(b, -1)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			rc.SetStatusCode(fasthttp.StatusInternalServerError)
			rc.SetBodyString(err.Error())
			return
		}
		rc.SetContentType("application/json")
		rc.SetBody(data)
	}
}
