package fasthost

import (
	"github.com/douglasgreyling/ring"
	"github.com/valyala/fasthttp"
)

// Handler runs p for every request. next is the continuation handlers
// reach through Request.Next; it may be nil. A handler error becomes a
// JSON error response with the status from ring.StatusCode, and a request
// nothing answered gets a 404.
//
// fasthttp reuses the RequestCtx once Handler returns, so a handler must
// not leave a Request.Next call running when it settles.
func Handler(p *ring.Pipeline, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(rc *fasthttp.RequestCtx) {
		c := NewContext(rc)

		var cont ring.Continuation
		if next != nil {
			cont = func() error {
				c.mu.Lock()
				defer c.mu.Unlock()
				next(rc)
				return nil
			}
		}

		if err := p.Serve(c, cont); err != nil {
			c.SetBody(map[string]string{"error": p.ErrorText(err)})
			c.SetStatus(ring.StatusCode(err))
			return
		}
		if c.Context().Err() != nil {
			return
		}
		if ring.IsAwaiting(c) {
			c.SetBody(map[string]string{"error": "Not Found"})
			c.SetStatus(fasthttp.StatusNotFound)
		}
	}
}
