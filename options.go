package ring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option is a functional option for configuring a Pipeline
type Option interface {
	applyToPipeline(*Pipeline)
}

type optionFunc func(*Pipeline)

func (f optionFunc) applyToPipeline(p *Pipeline) { f(p) }

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return optionFunc(func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	})
}

// WithMetrics registers the pipeline's collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(p *Pipeline) {
		p.metrics = newMetrics(reg)
	})
}

// WithNotFound sets the handler used by ServeHTTP when nothing answered
// the request.
func WithNotFound(h http.Handler) Option {
	return optionFunc(func(p *Pipeline) {
		p.NotFound = h
	})
}

// WithErrorHandler sets the function that turns a handler error into a
// response.
func WithErrorHandler(fn func(*Context, error)) Option {
	return optionFunc(func(p *Pipeline) {
		p.ErrorHandler = fn
	})
}

// WithExposeErrors makes the default error handler send err.Error() to the
// client instead of the status text.
func WithExposeErrors(expose bool) Option {
	return optionFunc(func(p *Pipeline) {
		p.exposeErrors = expose
	})
}

// WithoutLifetime makes the pipeline wait for its handler even after the
// client has gone away.
func WithoutLifetime() Option {
	return optionFunc(func(p *Pipeline) {
		p.trackLifetime = false
	})
}

// pipelineMiddleware is an option that adds middleware in front of the
// pipeline's handler
type pipelineMiddleware []Middleware

func (m pipelineMiddleware) applyToPipeline(p *Pipeline) {
	p.middleware = append(p.middleware, m...)
}

// WithMiddleware adds middleware in front of the pipeline's handler. The
// first one given is the outermost.
func WithMiddleware(mws ...Middleware) Option {
	return pipelineMiddleware(mws)
}
