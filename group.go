package shttp

// Group groups routes under a common path prefix and middleware chain,
// grounded on the teacher's own group.go.
type Group struct {
	prefix          string
	router          *Router
	middlewareFuncs []MiddlewareFunc
}

// Group creates a new route group with the given prefix.
func (r *Router) Group(prefix string) *Group {
	return &Group{prefix: prefix, router: r}
}

// Use appends middleware run before every handler registered on the
// group (and its sub-groups) from this point on.
func (g *Group) Use(mw ...MiddlewareFunc) *Group {
	g.middlewareFuncs = append(g.middlewareFuncs, mw...)
	return g
}

func (g *Group) GET(pattern string, h Handler) *Group     { return g.Handle(MethodGet, pattern, h) }
func (g *Group) HEAD(pattern string, h Handler) *Group    { return g.Handle(MethodHead, pattern, h) }
func (g *Group) POST(pattern string, h Handler) *Group    { return g.Handle(MethodPost, pattern, h) }
func (g *Group) PUT(pattern string, h Handler) *Group     { return g.Handle(MethodPut, pattern, h) }
func (g *Group) DELETE(pattern string, h Handler) *Group  { return g.Handle(MethodDelete, pattern, h) }
func (g *Group) CONNECT(pattern string, h Handler) *Group { return g.Handle(MethodConnect, pattern, h) }
func (g *Group) OPTIONS(pattern string, h Handler) *Group { return g.Handle(MethodOptions, pattern, h) }
func (g *Group) TRACE(pattern string, h Handler) *Group   { return g.Handle(MethodTrace, pattern, h) }

// Handle registers handler for method at pattern, joined under the
// group's prefix and wrapped by the group's middleware chain.
func (g *Group) Handle(method Method, pattern string, handler Handler) *Group {
	full := joinPath(g.prefix, pattern)
	wrapped := Chain(g.middlewareFuncs, handler)
	if err := g.router.Add(method, full, wrapped); err != nil {
		panic(err)
	}
	return g
}

// Group creates a sub-group, combining prefixes and inheriting the
// parent's middleware chain.
func (g *Group) Group(prefix string) *Group {
	sub := &Group{
		prefix:          joinPath(g.prefix, prefix),
		router:          g.router,
		middlewareFuncs: append([]MiddlewareFunc(nil), g.middlewareFuncs...),
	}
	return sub
}

func joinPath(prefix, pattern string) string {
	if pattern == "" {
		return prefix
	}
	if pattern[0] != '/' && prefix != "" {
		return prefix + "/" + pattern
	}
	return prefix + pattern
}
