package naming

import (
	"reflect"
	"runtime"
	"strings"
)

// FuncName returns a short name for the function fn, suitable for error
// messages. Examples:
//
//	github.com/acme/app/auth.Require -> auth.Require
//	github.com/acme/app/auth.(*Guard).Wrap-fm -> auth.(*Guard).Wrap
//	github.com/acme/app.main.func1 -> app.main.func1
//
// It returns "<nil>" for a nil func and the type name for anything that is
// not a func.
func FuncName(fn any) string {
	if fn == nil {
		return "<nil>"
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return v.Type().String()
	}
	if v.IsNil() {
		return "<nil>"
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return v.Type().String()
	}
	return Clean(f.Name())
}

// Clean strips the import path and the method value suffix from a fully
// qualified function name.
func Clean(name string) string {
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
