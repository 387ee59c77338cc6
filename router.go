package shttp

import (
	"regexp"
	"strings"
	"sync"
)

// PathSegment is one node of the router's path tree, grounded on
// original_source/http/include/server/router.h's path_segment: a literal
// name, or a parameter name plus an optional compiled regex, with a
// sibling list of children.
type PathSegment struct {
	name     string
	param    string
	regex    *regexp.Regexp
	children []*PathSegment
	handlers map[Method]Handler
}

// isParam reports whether this segment binds a path parameter rather than
// matching a literal.
func (s *PathSegment) isParam() bool { return s.param != "" }

// matches reports whether seg satisfies this segment's matcher, grounded
// on path_segment::matches: regex_match if a regex is compiled, exact
// string equality otherwise.
func (s *PathSegment) matches(seg string) bool {
	if s.regex != nil {
		return s.regex.MatchString(seg)
	}
	if s.isParam() {
		return true // implicit "[^/]+": any single non-empty segment
	}
	return s.name == seg
}

// newPathSegment parses one path element: a literal, "{param}", or
// "{param:regex}". Regex compilation failures are reported at
// registration time, per spec.md §4.8.
func newPathSegment(raw string) (*PathSegment, error) {
	if len(raw) >= 2 && raw[0] == '{' && raw[len(raw)-1] == '}' {
		inner := raw[1 : len(raw)-1]
		if i := strings.IndexByte(inner, ':'); i >= 0 {
			name := strings.TrimSpace(inner[:i])
			pattern := strings.TrimSpace(inner[i+1:])
			re, err := regexp.Compile("^(?:" + pattern + ")$")
			if err != nil {
				return nil, &Error{Kind: ErrBadMessage, Message: "invalid_argument: bad route regex", Err: err}
			}
			return &PathSegment{param: name, regex: re}, nil
		}
		return &PathSegment{param: inner}, nil
	}
	return &PathSegment{name: raw}, nil
}

// splitPath splits path by "/", dropping empty segments, grounded on
// router.cpp's split().
func splitPath(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Router is a multi-rooted PathSegment tree, grounded on router.h/.cpp's
// router singleton — reimplemented here as an instantiable type, since the
// Go engine supports more than one Router per process (e.g. tests).
type Router struct {
	mu    sync.RWMutex
	roots []*PathSegment
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{}
}

// Add registers handler for method on path, grounded on router.cpp's
// add(): existing literal siblings are reused, new literal nodes are
// front-inserted and new parameter/regex nodes are back-inserted, which
// is the sole grounding for the literal-wins tie-break rule in dispatch.
func (r *Router) Add(method Method, path string, handler Handler) error {
	segs := splitPath(path)
	r.mu.Lock()
	defer r.mu.Unlock()

	siblings := &r.roots
	var node *PathSegment
	for _, raw := range segs {
		next, err := newPathSegment(raw)
		if err != nil {
			return err
		}
		node = findRegistrationNode(*siblings, next)
		if node == nil {
			node = next
			node.handlers = make(map[Method]Handler)
			if node.isParam() {
				*siblings = append(*siblings, node)
			} else {
				*siblings = append([]*PathSegment{node}, *siblings...)
			}
		}
		siblings = &node.children
	}
	if node == nil {
		return &Error{Kind: ErrBadMessage, Message: "invalid_argument: empty route path"}
	}
	if node.handlers == nil {
		node.handlers = make(map[Method]Handler)
	}
	node.handlers[method] = handler
	return nil
}

// findRegistrationNode looks for an existing sibling that is an exact
// structural match for candidate (same literal name, or same param name
// and regex source), reusing it rather than creating a duplicate node.
func findRegistrationNode(siblings []*PathSegment, candidate *PathSegment) *PathSegment {
	for _, s := range siblings {
		if candidate.isParam() && s.isParam() && s.param == candidate.param {
			if (s.regex == nil) == (candidate.regex == nil) {
				if s.regex == nil || s.regex.String() == candidate.regex.String() {
					return s
				}
			}
			continue
		}
		if !candidate.isParam() && !s.isParam() && s.name == candidate.name {
			return s
		}
	}
	return nil
}

// Handle dispatches req against the tree, grounded on router.cpp's
// handle(): splits the path, walks siblings in order (literal-first
// because of front-insertion), records matched parameters, and raises
// not_found or not_implemented as appropriate.
func (r *Router) Handle(req *Request) (Handler, error) {
	segs := splitPath(req.Path())

	r.mu.RLock()
	defer r.mu.RUnlock()

	siblings := r.roots
	var node *PathSegment
	var params map[string]string
	for _, seg := range segs {
		node = findDispatchNode(siblings, seg)
		if node == nil {
			return nil, newNotFound("no route matches " + req.Path())
		}
		if node.isParam() {
			if params == nil {
				params = make(map[string]string)
			}
			params[node.param] = seg
		}
		siblings = node.children
	}
	if node == nil {
		return nil, newNotFound("no route matches " + req.Path())
	}
	handler, ok := node.handlers[req.Method]
	if !ok {
		if len(node.handlers) == 0 {
			return nil, newNotImplemented("route " + req.Path() + " has no handler")
		}
		return nil, newNotImplemented("method " + string(req.Method) + " not implemented for " + req.Path())
	}
	req.Params = params
	return handler, nil
}

// findDispatchNode returns the first sibling (in list order, i.e.
// literals before parameters/regexes) whose matcher accepts seg.
func findDispatchNode(siblings []*PathSegment, seg string) *PathSegment {
	for _, s := range siblings {
		if s.matches(seg) {
			return s
		}
	}
	return nil
}
