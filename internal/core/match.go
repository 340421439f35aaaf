package core

import (
	"fmt"
	"strings"

	"github.com/comalice/navigatorx/internal/primitives"
)

// matchRoute matches a literal path against a route pattern with {name}
// placeholders. Segment counts must be equal; literal segments must match exactly;
// placeholders bind the corresponding path segment.
func matchRoute(pattern, path string) (primitives.Params, bool) {
	want := strings.Split(pattern, "/")
	got := strings.Split(path, "/")
	if len(want) != len(got) {
		return nil, false
	}

	var params primitives.Params
	for i, seg := range want {
		if primitives.IsPlaceholder(seg) {
			if got[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(primitives.Params)
			}
			params[seg[1:len(seg)-1]] = got[i]
			continue
		}
		if seg != got[i] {
			return nil, false
		}
	}
	return params, true
}

// expandRoute substitutes placeholders with bound params, leaving unbound ones as-is.
func expandRoute(pattern string, params primitives.Params) string {
	if !strings.Contains(pattern, "{") || len(params) == 0 {
		return pattern
	}
	segs := strings.Split(pattern, "/")
	for i, seg := range segs {
		if !primitives.IsPlaceholder(seg) {
			continue
		}
		if v, ok := params[seg[1:len(seg)-1]]; ok && v != nil {
			segs[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(segs, "/")
}

// splitPath returns the non-empty segments of a slash path.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
