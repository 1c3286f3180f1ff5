package ring

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/pkg/errors"
)

// responseWriter wraps http.ResponseWriter to track response state
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

// WriteHeader captures the status code and tracks that headers were written
func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called and tracks that response started
func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Status returns the HTTP status code that was written
func (w *responseWriter) Status() int {
	return w.status
}

// Context is the net/http Host. The response is buffered: status, headers
// and body are collected while the pipeline runs and written to the
// client by Flush.
type Context struct {
	Writer  *responseWriter
	Request *http.Request

	mu       sync.Mutex
	status   int
	explicit bool
	header   http.Header
	body     any
	flushed  bool
}

// NewContext creates a Context for one request. It reports UnhandledStatus
// until a status or a body is set.
func NewContext(w http.ResponseWriter, r *http.Request) *Context {
	return &Context{
		Writer:  &responseWriter{ResponseWriter: w, status: http.StatusOK},
		Request: r,
		status:  UnhandledStatus,
		header:  make(http.Header),
	}
}

// Context returns the request context. net/http cancels it when the client
// goes away.
func (c *Context) Context() context.Context {
	return c.Request.Context()
}

// RequestURL returns the path and query of the request.
func (c *Context) RequestURL() string {
	return c.Request.URL.RequestURI()
}

// RequestMethod returns the HTTP method
func (c *Context) RequestMethod() string {
	return c.Request.Method
}

// RequestHeader returns the request headers
func (c *Context) RequestHeader() http.Header {
	return c.Request.Header
}

// RequestBody returns the unread request body, or nil if there is none.
func (c *Context) RequestBody() any {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	return c.Request.Body
}

// Status returns the buffered response status.
func (c *Context) Status() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// ResponseHeader returns the buffered response headers.
func (c *Context) ResponseHeader() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.header
}

// ResponseBody returns the buffered response body.
func (c *Context) ResponseBody() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.body
}

// SetStatus sets the response status code
func (c *Context) SetStatus(code int) {
	c.mu.Lock()
	c.status = code
	c.explicit = true
	c.mu.Unlock()
}

// SetHeader replaces the values of a response header
func (c *Context) SetHeader(key string, values ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.header.Del(key)
	for _, v := range values {
		c.header.Add(key, v)
	}
}

// SetBody sets the response body. If no status was set it becomes 200.
func (c *Context) SetBody(body any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.body = body
	if !c.explicit && body != nil {
		c.status = http.StatusOK
	}
}

// IsHeaderWritten returns true if response headers have been sent to the client.
func (c *Context) IsHeaderWritten() bool {
	return c.Writer.wroteHeader
}

// JSON buffers a JSON response
func (c *Context) JSON(status int, data any) {
	c.SetHeader("Content-Type", "application/json")
	c.SetStatus(status)
	c.SetBody(data)
}

// String buffers a plain text response
func (c *Context) String(status int, format string, values ...any) {
	c.SetHeader("Content-Type", "text/plain; charset=utf-8")
	c.SetStatus(status)
	c.SetBody(fmt.Sprintf(format, values...))
}

// ResponseWriter returns an http.ResponseWriter that records into c instead
// of writing to the client. It is handed to the downstream http.Handler.
func (c *Context) ResponseWriter() http.ResponseWriter {
	return &captureWriter{ctx: c, header: make(http.Header)}
}

// Flush writes the buffered response to the client. Only the first call
// writes; later calls return nil.
func (c *Context) Flush() error {
	c.mu.Lock()
	if c.flushed {
		c.mu.Unlock()
		return nil
	}
	c.flushed = true
	status, body := c.status, c.body
	header := c.header.Clone()
	c.mu.Unlock()

	dst := c.Writer.Header()
	for k, v := range header {
		dst[k] = v
	}

	switch b := body.(type) {
	case nil:
		c.Writer.WriteHeader(status)
		return nil
	case []byte:
		c.Writer.WriteHeader(status)
		_, err := c.Writer.Write(b)
		return errors.Wrap(err, "write body")
	case string:
		if dst.Get("Content-Type") == "" {
			dst.Set("Content-Type", "text/plain; charset=utf-8")
		}
		c.Writer.WriteHeader(status)
		_, err := io.WriteString(c.Writer, b)
		return errors.Wrap(err, "write body")
	case io.Reader:
		if rc, ok := b.(io.Closer); ok {
			defer rc.Close()
		}
		c.Writer.WriteHeader(status)
		_, err := io.Copy(c.Writer, b)
		return errors.Wrap(err, "copy body")
	}

	data, err := json.Marshal(body)
	if err != nil {
		c.Writer.WriteHeader(http.StatusInternalServerError)
		return errors.Wrapf(err, "encode %T body", body)
	}
	if dst.Get("Content-Type") == "" {
		dst.Set("Content-Type", "application/json")
	}
	c.Writer.WriteHeader(status)
	_, err = c.Writer.Write(data)
	return errors.Wrap(err, "write body")
}

// captureWriter records what a downstream http.Handler writes onto a
// Context.
type captureWriter struct {
	ctx         *Context
	header      http.Header
	wroteHeader bool
}

func (w *captureWriter) Header() http.Header {
	return w.header
}

func (w *captureWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	for k, v := range w.header {
		w.ctx.SetHeader(k, v...)
	}
	w.ctx.SetStatus(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	c := w.ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, _ := c.body.([]byte)
	buf := make([]byte, 0, len(prev)+len(b))
	buf = append(buf, prev...)
	c.body = append(buf, b...)
	return len(b), nil
}
