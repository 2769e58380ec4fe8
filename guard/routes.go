package guard

import (
	"sort"
	"strings"
)

// Route describes the access requirements of one console path. A Path ending
// in "/*" matches every path below it. AllOf requires every listed code;
// AnyOf requires at least one. A route with neither only requires a session.
type Route struct {
	Path   string
	Public bool
	AnyOf  []string
	AllOf  []string
}

func (r Route) prefix() (string, bool) {
	if strings.HasSuffix(r.Path, "/*") {
		return strings.TrimSuffix(r.Path, "*"), true
	}
	return "", false
}

// Routes is a read-only route table. Exact paths win over prefixes and longer
// prefixes win over shorter ones.
type Routes struct {
	exact    map[string]Route
	prefixes []Route
}

// NewRoutes builds a table. Later routes replace earlier ones with the same
// Path.
func NewRoutes(routes ...Route) *Routes {
	t := &Routes{exact: make(map[string]Route, len(routes))}
	byPrefix := make(map[string]int)
	for _, r := range routes {
		r.AnyOf = append([]string(nil), r.AnyOf...)
		r.AllOf = append([]string(nil), r.AllOf...)
		if p, ok := r.prefix(); ok {
			if i, dup := byPrefix[p]; dup {
				t.prefixes[i] = r
				continue
			}
			byPrefix[p] = len(t.prefixes)
			t.prefixes = append(t.prefixes, r)
			continue
		}
		t.exact[r.Path] = r
	}
	sort.SliceStable(t.prefixes, func(i, j int) bool {
		return len(t.prefixes[i].Path) > len(t.prefixes[j].Path)
	})
	return t
}

// Match returns the route for path. Unknown paths yield a route that only
// requires a session, with ok set to false.
func (t *Routes) Match(path string) (route Route, ok bool) {
	if t != nil {
		if r, found := t.exact[path]; found {
			return r, true
		}
		for _, r := range t.prefixes {
			p, _ := r.prefix()
			if strings.HasPrefix(path, p) || path == strings.TrimSuffix(p, "/") {
				return r, true
			}
		}
	}
	return Route{Path: path}, false
}
