package ring

import "strings"

// Method holds for requests with one of the given methods. Methods are
// compared case-insensitively.
func Method(methods ...string) Predicate {
	return func(req *Request) bool {
		for _, m := range methods {
			if strings.EqualFold(req.Method, m) {
				return true
			}
		}
		return false
	}
}

// Header holds when the request carries key. With values given, one of the
// header's values must equal one of them.
func Header(key string, values ...string) Predicate {
	return func(req *Request) bool {
		got := req.Header.Values(key)
		if len(got) == 0 {
			return false
		}
		if len(values) == 0 {
			return true
		}
		for _, g := range got {
			for _, v := range values {
				if g == v {
					return true
				}
			}
		}
		return false
	}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return func(req *Request) bool { return !p(req) }
}

// All holds when every one of ps holds. All() always holds.
func All(ps ...Predicate) Predicate {
	return func(req *Request) bool {
		for _, p := range ps {
			if !p(req) {
				return false
			}
		}
		return true
	}
}

// Any holds when at least one of ps holds. Any() never holds.
func Any(ps ...Predicate) Predicate {
	return func(req *Request) bool {
		for _, p := range ps {
			if p(req) {
				return true
			}
		}
		return false
	}
}
