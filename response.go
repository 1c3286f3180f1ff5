package ring

import (
	"math"
	"net/http"
	"reflect"

	"github.com/muir/reflectutils"
	"github.com/pkg/errors"
)

// UnhandledStatus is the status a host reports while nothing has answered
// the request. Together with a nil body it means "no opinion yet".
const UnhandledStatus = http.StatusNotFound

// Response describes what a handler wants sent back. A zero Status, a nil
// Header and a nil Body each mean "leave it as it is".
type Response struct {
	Status int
	Header http.Header
	Body   any
}

// Respond is shorthand for a Response with a status and a body.
func Respond(status int, body any) *Response {
	return &Response{Status: status, Body: body}
}

// Settled reports whether r carries anything worth writing: a status other
// than UnhandledStatus, or a body. Unsettled responses are never applied.
func (r *Response) Settled() bool {
	if r == nil {
		return false
	}
	return (r.Status > 0 && r.Status != UnhandledStatus) || r.Body != nil
}

// toResponse interprets the value a handler settled with.
func toResponse(v any) (*Response, error) {
	switch r := v.(type) {
	case nil:
		return nil, nil
	case *Response:
		return r, nil
	case Response:
		return &r, nil
	case map[string]any:
		return responseFromMap(r)
	}
	return nil, errors.Wrapf(ErrUnexpectedResult, "handler settled with %s",
		reflectutils.TypeName(reflect.TypeOf(v)))
}

func responseFromMap(m map[string]any) (*Response, error) {
	resp := &Response{Body: m["body"]}
	if s, ok := m["status"]; ok && s != nil {
		code, err := statusFromValue(s)
		if err != nil {
			return nil, err
		}
		resp.Status = code
	}
	switch h := m["headers"].(type) {
	case nil:
	case http.Header:
		resp.Header = h
	case map[string]string:
		resp.Header = make(http.Header, len(h))
		for k, v := range h {
			resp.Header.Set(k, v)
		}
	default:
		return nil, errors.Wrapf(ErrUnexpectedResult, "headers are %s",
			reflectutils.TypeName(reflect.TypeOf(h)))
	}
	return resp, nil
}

// statusFromValue accepts any integer kind, and floats holding a whole
// number, as JSON decoding produces them.
func statusFromValue(s any) (int, error) {
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		if f := v.Float(); f == math.Trunc(f) {
			return int(f), nil
		}
		return 0, errors.Wrapf(ErrUnexpectedResult, "status %v is not a whole number", s)
	}
	return 0, errors.Wrapf(ErrUnexpectedResult, "status is %s, not a number",
		reflectutils.TypeName(v.Type()))
}
