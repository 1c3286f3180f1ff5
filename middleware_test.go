package ring

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracing(calls *[]string, name string) Middleware {
	return func(next Handler) Handler {
		return func(req *Request) any {
			*calls = append(*calls, name+"-before")
			v := next(req)
			*calls = append(*calls, name+"-after")
			return v
		}
	}
}

func TestMiddleware(t *testing.T) {
	var calls []string

	handler := func(req *Request) any {
		calls = append(calls, "handler")
		return Respond(http.StatusOK, "OK")
	}

	h := Compose(tracing(&calls, "middleware1"), tracing(&calls, "middleware2"))(handler)
	v := h(&Request{Method: "GET", Path: "/test"})

	expected := []string{
		"middleware1-before",
		"middleware2-before",
		"handler",
		"middleware2-after",
		"middleware1-after",
	}

	if len(calls) != len(expected) {
		t.Errorf("Expected %d calls, got %d", len(expected), len(calls))
	}

	for i, call := range expected {
		if i >= len(calls) || calls[i] != call {
			t.Errorf("Call %d: expected '%s', got '%v'", i, call, calls)
		}
	}

	if resp, ok := v.(*Response); !ok || resp.Status != http.StatusOK {
		t.Errorf("Expected a 200 response, got %#v", v)
	}
}

func TestComposeAssociativity(t *testing.T) {
	run := func(build func(a, b, c Middleware) Handler) []string {
		var calls []string
		a, b, c := tracing(&calls, "a"), tracing(&calls, "b"), tracing(&calls, "c")
		build(a, b, c)(&Request{Path: "/"})
		return calls
	}

	terminal := func(*Request) any { return nil }
	flat := run(func(a, b, c Middleware) Handler { return Compose(a, b, c)(terminal) })
	nested := run(func(a, b, c Middleware) Handler { return a(b(c(terminal))) })
	grouped := run(func(a, b, c Middleware) Handler { return Compose(Compose(a, b), c)(terminal) })

	assert.Equal(t, nested, flat)
	assert.Equal(t, nested, grouped)
}

func TestComposeNothingIsIdentity(t *testing.T) {
	req := &Request{}
	var seen *Request
	h := Compose()(func(r *Request) any { seen = r; return "x" })
	assert.Equal(t, "x", h(req))
	assert.Same(t, req, seen)
}

func nilHandlerMiddleware(Handler) Handler { return nil }

func TestToHandlerRejectsNilHandler(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		ce, ok := r.(*CompositionError)
		require.True(t, ok, "panic value is %T", r)
		assert.Equal(t, 1, ce.Index)
		assert.Equal(t, "ring.nilHandlerMiddleware", ce.Name)
		assert.True(t, strings.Contains(ce.Error(), "returned a nil handler"))
	}()
	Compose(Endpoint(NotHandled), nilHandlerMiddleware)(NotHandled)
}

func TestToHandlerWithoutIndex(t *testing.T) {
	assert.PanicsWithError(t, "ring: middleware ring.nilHandlerMiddleware returned a nil handler", func() {
		ToHandler(NotHandled, nilHandlerMiddleware)
	})
}

func TestEndpointIgnoresNext(t *testing.T) {
	called := false
	next := func(*Request) any { called = true; return nil }
	h := ToHandler(next, Endpoint(func(*Request) any { return "end" }))
	assert.Equal(t, "end", h(&Request{}))
	assert.False(t, called)
}

func TestChainForwardsWithoutContinuation(t *testing.T) {
	h := Chain(tracing(new([]string), "a"))
	f := Normalize(h(&Request{}))
	assert.Equal(t, StateResolved, f.State())
	assert.Nil(t, f.Outcome().Value)
}
