package ring

import (
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"
)

// Pipeline runs a Handler against host requests, one run per request, and
// writes its response back unless the client went away first.
type Pipeline struct {
	handler    Handler
	middleware []Middleware

	log           *zap.Logger
	metrics       *metrics
	trackLifetime bool
	exposeErrors  bool

	// NotFound handles requests nothing answered. The default sends a 404
	// JSON error.
	NotFound http.Handler

	// ErrorHandler turns a handler error into a response.
	ErrorHandler func(*Context, error)
}

// New creates a Pipeline around h. A nil h forwards every request to the
// host's continuation.
func New(h Handler, opts ...Option) *Pipeline {
	p := &Pipeline{
		log:           zap.NewNop(),
		trackLifetime: true,
	}
	for _, opt := range opts {
		opt.applyToPipeline(p)
	}
	if h == nil {
		h = Forward
	}
	p.handler = Compose(p.middleware...)(h)
	if p.ErrorHandler == nil {
		p.ErrorHandler = p.defaultErrorHandler
	}
	return p
}

// Serve runs the pipeline for one request on host. next is the host's own
// continuation and may be nil. The response is applied to host only if it
// is still awaiting one and its connection is still open. Handler errors
// are returned unchanged; the caller decides how to report them.
func (p *Pipeline) Serve(host Host, next Continuation) error {
	_, err := p.serve(host, next)
	return err
}

func (p *Pipeline) serve(host Host, next Continuation) (outcome string, err error) {
	outcome = outcomeFailed
	p.metrics.start()
	defer func() { p.metrics.finish(outcome) }()

	req := ToRequest(host, once(next))
	var lifetime *Future
	if p.trackLifetime {
		lifetime = TrackLifetime(host.Context())
	}

	resp, closed, err := run(p.handler, req, lifetime)
	switch {
	case err != nil:
		fields := []zap.Field{zap.Object("request", req), zap.Error(err)}
		if stack := RecoverStack(err); stack != "" {
			fields = append(fields, zap.String("stack", stack))
		}
		p.log.Error("pipeline_failed", fields...)
		return outcomeFailed, err
	case closed:
		p.log.Debug("pipeline_cancelled", zap.Object("request", req))
		return outcomeCancelled, nil
	}
	if ApplyResponse(host, resp) || !IsAwaiting(host) {
		return outcomeResponded, nil
	}
	p.log.Debug("pipeline_unhandled", zap.Object("request", req))
	return outcomeUnhandled, nil
}

// Middleware runs the pipeline in front of next. next is the continuation:
// it runs when a handler calls Request.Next, or Forward, and what it writes
// is buffered like everything else.
func (p *Pipeline) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.serveHTTP(next, w, r)
	})
}

// ServeHTTP implements the http.Handler interface
func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.serveHTTP(nil, w, r)
}

func (p *Pipeline) serveHTTP(next http.Handler, w http.ResponseWriter, r *http.Request) {
	c := NewContext(w, r)

	var cont Continuation
	if next != nil {
		cont = func() error {
			next.ServeHTTP(c.ResponseWriter(), r)
			return nil
		}
	}

	outcome, err := p.serve(c, cont)
	switch {
	case outcome == outcomeCancelled:
		return
	case err != nil:
		p.ErrorHandler(c, err)
	case IsAwaiting(c):
		p.notFound(c)
	}
	if err := c.Flush(); err != nil {
		p.log.Warn("response_write_failed",
			zap.String("method", r.Method),
			zap.String("url", r.URL.RequestURI()),
			zap.Error(err))
		return
	}
	p.log.Debug("response_flushed",
		zap.String("method", r.Method),
		zap.String("url", r.URL.RequestURI()),
		zap.Int("status", c.Writer.Status()))
}

func (p *Pipeline) notFound(c *Context) {
	if p.NotFound != nil {
		p.NotFound.ServeHTTP(c.ResponseWriter(), c.Request)
		return
	}
	c.JSON(http.StatusNotFound, map[string]string{
		"error": "Not Found",
	})
}

// ErrorText is the message the default error handler sends for err.
func (p *Pipeline) ErrorText(err error) string {
	if p.exposeErrors {
		return err.Error()
	}
	return http.StatusText(StatusCode(err))
}

func (p *Pipeline) defaultErrorHandler(c *Context, err error) {
	c.JSON(StatusCode(err), map[string]string{
		"error": p.ErrorText(err),
	})
}

// once guards a continuation so the rest of the host's pipeline runs at
// most once per request.
func once(next Continuation) Continuation {
	if next == nil {
		return nil
	}
	var called atomic.Bool
	return func() error {
		if !called.CompareAndSwap(false, true) {
			return ErrNextCalledTwice
		}
		return next()
	}
}
