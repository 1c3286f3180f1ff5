// Package muxpred uses gorilla/mux routes as ring predicates, so requests
// can be matched with mux path templates, methods, headers and queries
// without the core knowing any pattern syntax.
package muxpred

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/douglasgreyling/ring"
	"github.com/gorilla/mux"
)

// Route holds for requests that r matches. Paths of mounted requests have
// no leading slash; one is added before matching.
func Route(r *mux.Route) ring.Predicate {
	return func(req *ring.Request) bool {
		_, ok := match(r, req)
		return ok
	}
}

// Path holds for requests whose path matches the mux template tpl and,
// when methods are given, whose method is one of them.
func Path(tpl string, methods ...string) ring.Predicate {
	return Route(NewRoute(tpl, methods...))
}

// NewRoute builds a standalone mux route for tpl.
func NewRoute(tpl string, methods ...string) *mux.Route {
	r := mux.NewRouter().NewRoute().Path(tpl)
	if len(methods) > 0 {
		r = r.Methods(methods...)
	}
	return r
}

// Handle runs mw for requests r matches.
func Handle(r *mux.Route, mw ring.Middleware) ring.Middleware {
	return ring.Match(Route(r), mw)
}

// Vars returns the template variables r extracts from req, or nil if r
// does not match req.
func Vars(r *mux.Route, req *ring.Request) map[string]string {
	vars, ok := match(r, req)
	if !ok {
		return nil
	}
	return vars
}

func match(r *mux.Route, req *ring.Request) (map[string]string, bool) {
	hr, err := toHTTP(req)
	if err != nil {
		return nil, false
	}
	var m mux.RouteMatch
	if !r.Match(hr, &m) {
		return nil, false
	}
	return m.Vars, true
}

func toHTTP(req *ring.Request) (*http.Request, error) {
	u, err := url.ParseRequestURI("/" + strings.TrimPrefix(req.URL, "/"))
	if err != nil {
		return nil, err
	}
	header := req.Header
	if header == nil {
		header = http.Header{}
	}
	return &http.Request{
		Method:     req.Method,
		URL:        u,
		RequestURI: u.RequestURI(),
		Header:     header,
		Host:       header.Get("Host"),
	}, nil
}
