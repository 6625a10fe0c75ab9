package router

import (
	"net/http"
	"sort"
	"strings"

	"github.com/fsroute/fsroute/core/handler"
)

// Pattern is a compiled route bound to its handler and declared metadata.
type Pattern[C handler.Context] struct {
	Shape
	Handler handler.HandlerFunc[C]
	Options handler.Options
}

// Upgrade reports whether the route is a WebSocket or SSE route.
func (p *Pattern[C]) Upgrade() bool {
	return p.Method == MethodWS || p.Method == MethodSSE
}

// Match is the outcome of a successful lookup: the selected pattern plus
// the captured parameters. It is owned by the request that triggered it.
type Match[C handler.Context] struct {
	Pattern *Pattern[C]
	Params  map[string]string
}

// Table holds all compiled patterns, grouped by method tag and segment
// count. Catch-all patterns sit in a separate per-method list tried after
// exact-length candidates, independent of length. The table is write-only
// during startup and read-only afterwards; Lookup never mutates it.
type Table[C handler.Context] struct {
	byMethod map[string]*bucket[C]
	sigs     map[string]string // signature -> raw pattern, for duplicate detection
}

type bucket[C handler.Context] struct {
	exact    map[int][]*Pattern[C]
	catchAll []*Pattern[C]
}

func NewTable[C handler.Context]() *Table[C] {
	return &Table[C]{
		byMethod: make(map[string]*bucket[C]),
		sigs:     make(map[string]string),
	}
}

// Add compiles the route-definition path and registers the handler.
// Registration fails with *InvalidPatternError on a malformed pattern or a
// duplicate (method, segment-shape) signature.
func (t *Table[C]) Add(file string, h handler.HandlerFunc[C], opts handler.Options) (*Pattern[C], error) {
	shape, err := Compile(file)
	if err != nil {
		return nil, err
	}

	sig := shape.signature()
	if prev, dup := t.sigs[sig]; dup {
		return nil, &InvalidPatternError{
			Pattern: file,
			Reason:  "duplicate route signature, already registered as " + prev,
		}
	}

	p := &Pattern[C]{Shape: shape, Handler: h, Options: opts}

	b := t.byMethod[shape.Method]
	if b == nil {
		b = &bucket[C]{exact: make(map[int][]*Pattern[C])}
		t.byMethod[shape.Method] = b
	}

	if n := len(shape.Segments); n > 0 && (shape.Segments[n-1].Kind == SegmentCatchAll ||
		shape.Segments[n-1].Kind == SegmentOptionalCatchAll) {
		b.catchAll = append(b.catchAll, p)
	} else {
		b.exact[n] = append(b.exact[n], p)
	}

	t.sigs[sig] = file
	return p, nil
}

// Lookup finds the best route for a request. GET requests also consider WS
// and SSE routes, since protocol upgrades arrive as plain GETs. Among all
// accepting routes the lowest precedence score wins; ties cannot occur
// because duplicate shapes are rejected at registration.
func (t *Table[C]) Lookup(method, path string) (*Match[C], error) {
	segs := splitPath(path)
	tags := methodLookupTags(method)

	var best *Pattern[C]
	var bestParams map[string]string

	for _, tag := range tags {
		b := t.byMethod[tag]
		if b == nil {
			continue
		}
		for _, p := range b.exact[len(segs)] {
			if params, ok := p.match(segs); ok {
				if best == nil || p.Score < best.Score {
					best, bestParams = p, params
				}
			}
		}
	}

	// Catch-all routes are matched last, independent of segment count.
	if best == nil {
		for _, tag := range tags {
			b := t.byMethod[tag]
			if b == nil {
				continue
			}
			for _, p := range b.catchAll {
				if params, ok := p.match(segs); ok {
					if best == nil || p.Score < best.Score {
						best, bestParams = p, params
					}
				}
			}
		}
	}

	if best != nil {
		return &Match[C]{Pattern: best, Params: bestParams}, nil
	}

	if allowed := t.allowedMethods(segs, tags); len(allowed) > 0 {
		return nil, &MethodNotAllowedError{Allowed: allowed}
	}
	return nil, ErrRouteNotFound
}

// allowedMethods reports which other methods would route the path.
// Upgrade tags surface as GET, since that is how a client reaches them.
func (t *Table[C]) allowedMethods(segs []string, tried []string) []string {
	skip := make(map[string]bool, len(tried))
	for _, tag := range tried {
		skip[tag] = true
	}

	seen := make(map[string]bool)
	for tag, b := range t.byMethod {
		if skip[tag] {
			continue
		}
		if !bucketMatches(b, segs) {
			continue
		}
		if tag == MethodWS || tag == MethodSSE {
			tag = http.MethodGet
		}
		seen[tag] = true
	}

	allowed := make([]string, 0, len(seen))
	for m := range seen {
		allowed = append(allowed, m)
	}
	sort.Strings(allowed)
	return allowed
}

func bucketMatches[C handler.Context](b *bucket[C], segs []string) bool {
	for _, p := range b.exact[len(segs)] {
		if _, ok := p.match(segs); ok {
			return true
		}
	}
	for _, p := range b.catchAll {
		if _, ok := p.match(segs); ok {
			return true
		}
	}
	return false
}

// match walks request segments pairwise against the pattern. Static
// segments require equality, dynamic segments always capture, typed
// segments additionally check the constraint, catch-alls consume the rest.
func (p *Pattern[C]) match(segs []string) (map[string]string, bool) {
	n := len(p.Segments)
	params := make(map[string]string, n)

	for i, seg := range p.Segments {
		switch seg.Kind {
		case SegmentCatchAll:
			if len(segs)-i < 1 {
				return nil, false
			}
			params[seg.Name] = strings.Join(segs[i:], "/")
			return params, true

		case SegmentOptionalCatchAll:
			params[seg.Name] = strings.Join(segs[i:], "/")
			return params, true
		}

		if i >= len(segs) {
			return nil, false
		}

		switch seg.Kind {
		case SegmentStatic:
			if segs[i] != seg.Literal {
				return nil, false
			}
		case SegmentTyped:
			if !seg.Type.accepts(segs[i]) {
				return nil, false
			}
			params[seg.Name] = segs[i]
		case SegmentDynamic:
			params[seg.Name] = segs[i]
		}
	}

	if len(segs) != n {
		return nil, false
	}
	return params, true
}

// Route describes one compiled route for read-only consumers such as
// diagnostics and OpenAPI projectors.
type Route struct {
	Method    string
	Pattern   string
	Score     int64
	Protected bool
}

// Routes returns the compiled route list sorted by method then pattern.
func (t *Table[C]) Routes() []Route {
	var routes []Route
	for tag, b := range t.byMethod {
		for _, ps := range b.exact {
			for _, p := range ps {
				routes = append(routes, Route{Method: tag, Pattern: p.Path(), Score: p.Score, Protected: p.Options.Protected})
			}
		}
		for _, p := range b.catchAll {
			routes = append(routes, Route{Method: tag, Pattern: p.Path(), Score: p.Score, Protected: p.Options.Protected})
		}
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Method != routes[j].Method {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Pattern < routes[j].Pattern
	})
	return routes
}

// methodLookupTags expands a request method into the table tags to search.
func methodLookupTags(method string) []string {
	if method == http.MethodGet {
		return []string{http.MethodGet, MethodWS, MethodSSE}
	}
	return []string{method}
}

// splitPath splits a request path into segments, dropping empty components
// so "/docs/" and "/docs" match identically.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	segs := parts[:0]
	for _, part := range parts {
		if part != "" {
			segs = append(segs, part)
		}
	}
	return segs
}
