// Package demo assembles the handler served by ringserve from its
// configuration.
package demo

import (
	"net/http"
	"time"

	"github.com/douglasgreyling/ring"
	"github.com/douglasgreyling/ring/internal/config"
	"github.com/douglasgreyling/ring/muxpred"
	"go.uber.org/zap"
)

// Handler returns the demo pipeline handler: a health check, an echo
// route, and one static mount per configured entry. Requests none of them
// answer are forwarded to the host.
func Handler(cfg *config.Config, log *zap.Logger) ring.Handler {
	mws := []ring.Middleware{
		ring.Match(muxpred.Path("/healthz", http.MethodGet), ring.Endpoint(health)),
		muxpred.Handle(echoRoute, ring.Endpoint(echo)),
	}
	for _, m := range cfg.Pipeline.Mounts {
		log.Debug("mount", zap.String("prefix", m.Prefix), zap.String("method", m.Method),
			zap.Int("status", m.Status), zap.Duration("delay", m.Delay.Duration()))
		mws = append(mws, Static(m))
	}
	return ring.Chain(mws...)
}

var echoRoute = muxpred.NewRoute("/echo/{name}", http.MethodGet)

func health(*ring.Request) any {
	return ring.Respond(http.StatusOK, map[string]string{"status": "ok"})
}

func echo(req *ring.Request) any {
	return map[string]any{
		"status": http.StatusOK,
		"body": map[string]any{
			"name":  muxpred.Vars(echoRoute, req)["name"],
			"query": req.Query,
		},
	}
}

// Static answers requests under m.Prefix with m.Body. With a delay the
// answer is produced by a step sequence that waits on a timer, so a client
// that hangs up early stops the timer.
func Static(m config.MountConfig) ring.Middleware {
	respond := func(req *ring.Request) *ring.Response {
		return &ring.Response{
			Status: m.Status,
			Header: http.Header{"X-Ring-Path": []string{req.Path}},
			Body:   m.Body,
		}
	}
	var h ring.Handler = func(req *ring.Request) any { return respond(req) }
	if d := m.Delay.Duration(); d > 0 {
		h = func(req *ring.Request) any {
			return ring.Steps(func(yield ring.Yield) (any, error) {
				if _, err := yield(After(d)); err != nil {
					return nil, err
				}
				return respond(req), nil
			})
		}
	}
	mw := ring.Endpoint(h)
	if m.Method != "" {
		mw = ring.Match(ring.Method(m.Method), mw)
	}
	return ring.Mount(m.Prefix, mw)
}

// After returns a Future that resolves with the current time once d has
// passed. Cancelling it stops the timer.
func After(d time.Duration) *ring.Future {
	f := ring.NewFuture()
	t := time.AfterFunc(d, func() { f.Resolve(time.Now()) })
	f.OnCancel(func() { t.Stop() })
	return f
}
