package authz

import (
	"sort"
	"strings"
)

// Requirement is the permission expression guarding one route. Every
// name in All must be held; holding one name from Any suffices. The
// zero value means the route is unrestricted at this layer.
type Requirement struct {
	All []string
	Any []string
}

// Unrestricted reports whether the requirement demands nothing.
func (r Requirement) Unrestricted() bool {
	return len(r.All) == 0 && len(r.Any) == 0
}

// Satisfied evaluates the expression against a resolved set.
func (r Requirement) Satisfied(set PermissionSet) bool {
	if !set.HasAll(r.All...) {
		return false
	}
	return set.HasAny(r.Any...)
}

// Missing lists the unmet permission names for diagnostics. For an
// unsatisfied any-of expression every candidate is reported, since
// holding any one of them would have sufficed.
func (r Requirement) Missing(set PermissionSet) []string {
	var missing []string
	for _, name := range r.All {
		if !set.Has(name) {
			missing = append(missing, name)
		}
	}
	if !set.HasAny(r.Any...) {
		missing = append(missing, r.Any...)
	}
	return missing
}

// RouteRule declares the requirement for one path pattern. A `*`
// segment matches exactly one path segment and never crosses a slash.
// Verbs maps upper-case HTTP methods to their requirement; a verb
// missing from the map leaves that method unrestricted.
type RouteRule struct {
	Pattern string
	Verbs   map[string]Requirement
}

type patternSegment struct {
	literal  string
	wildcard bool
}

type compiledRoute struct {
	pattern   string
	segments  []patternSegment
	wildcards int
	verbs     map[string]Requirement
}

func (c *compiledRoute) matches(segments []string) bool {
	if len(segments) != len(c.segments) {
		return false
	}
	for i, seg := range c.segments {
		if seg.wildcard {
			continue
		}
		if seg.literal != segments[i] {
			return false
		}
	}
	return true
}

// RouteTable resolves a normalized path and HTTP verb to a permission
// requirement. Patterns are compiled to segment lists once at
// construction; wildcard routes are pre-sorted by specificity so the
// first match during lookup is the winning key.
type RouteTable struct {
	exact    map[string]*compiledRoute
	wildcard []*compiledRoute
}

// NewRouteTable compiles the rule list. A pattern declared twice has
// its verb maps merged, with later rules overriding earlier ones.
func NewRouteTable(rules []RouteRule) *RouteTable {
	table := &RouteTable{exact: make(map[string]*compiledRoute)}
	byPattern := make(map[string]*compiledRoute)

	for _, rule := range rules {
		pattern := NormalizePath(rule.Pattern)
		route, ok := byPattern[pattern]
		if !ok {
			route = compileRoute(pattern)
			byPattern[pattern] = route
			if route.wildcards == 0 {
				table.exact[pattern] = route
			} else {
				table.wildcard = append(table.wildcard, route)
			}
		}
		for verb, req := range rule.Verbs {
			route.verbs[strings.ToUpper(verb)] = req
		}
	}

	// More segments win; among equal lengths fewer wildcards win. The
	// final pattern comparison keeps the order stable across rebuilds.
	sort.Slice(table.wildcard, func(i, j int) bool {
		a, b := table.wildcard[i], table.wildcard[j]
		if len(a.segments) != len(b.segments) {
			return len(a.segments) > len(b.segments)
		}
		if a.wildcards != b.wildcards {
			return a.wildcards < b.wildcards
		}
		return a.pattern < b.pattern
	})

	return table
}

// Lookup returns the requirement for a path and verb. Exact pattern
// matches take precedence over wildcard matches; if the winning key
// has no entry for the verb the route is unrestricted at this layer.
func (t *RouteTable) Lookup(path, verb string) Requirement {
	path = NormalizePath(path)
	verb = strings.ToUpper(verb)

	if route, ok := t.exact[path]; ok {
		return route.verbs[verb]
	}

	segments := splitPath(path)
	for _, route := range t.wildcard {
		if route.matches(segments) {
			return route.verbs[verb]
		}
	}
	return Requirement{}
}

// NormalizePath strips any query string and trailing slashes so that
// lookups and pattern declarations agree on one spelling per route.
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

func compileRoute(pattern string) *compiledRoute {
	route := &compiledRoute{
		pattern: pattern,
		verbs:   make(map[string]Requirement),
	}
	for _, raw := range splitPath(pattern) {
		if raw == "*" {
			route.segments = append(route.segments, patternSegment{wildcard: true})
			route.wildcards++
			continue
		}
		route.segments = append(route.segments, patternSegment{literal: raw})
	}
	return route
}

func splitPath(path string) []string {
	if path == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}
