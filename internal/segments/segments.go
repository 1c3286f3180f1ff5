package segments

import "strings"

// Split breaks a path into its segments. Empty segments are dropped, so
// "/api//v1/" gives ["api", "v1"] and "/" gives none.
func Split(path string) []string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TrimPrefix reports whether path starts with all of prefix, compared
// segment by segment and case-sensitively, and returns the segments of
// path that follow it.
func TrimPrefix(path string, prefix []string) ([]string, bool) {
	segs := Split(path)
	if len(segs) < len(prefix) {
		return nil, false
	}
	for i, p := range prefix {
		if segs[i] != p {
			return nil, false
		}
	}
	return segs[len(prefix):], true
}

// Join is the inverse of Split. Zero segments give "".
func Join(segs []string) string {
	return strings.Join(segs, "/")
}

// Validate returns the index of the first segment that is empty or
// contains a slash, or -1 if all of them are usable.
func Validate(segs []string) int {
	for i, s := range segs {
		if s == "" || strings.Contains(s, "/") {
			return i
		}
	}
	return -1
}
