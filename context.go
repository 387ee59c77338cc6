package shttp

import (
	"sync"

	"github.com/goccy/go-json"
)

// Ctx carries one request/response exchange through the middleware chain
// and into its handler, grounded on the teacher's own Ctx (context.go):
// a pooled, reusable object holding the inbound Request, the outbound
// status/headers/body being accumulated, and the middleware cursor. It is
// the application-facing handler API that sits atop the message engine's
// Request/Response/Headers/Body types.
type Ctx struct {
	Request *Request

	statusCode int
	header     *Headers
	body       []byte
	err        error

	middlewareStack []MiddlewareFunc
	middlewareIndex int
	handler         Handler
}

var contextPool = sync.Pool{
	New: func() interface{} {
		return &Ctx{
			statusCode: StatusOK,
			header:     NewHeaders(),
			body:       make([]byte, 0, 512),
		}
	},
}

// getContext pulls a Ctx from the pool and binds it to req.
func getContext(req *Request) *Ctx {
	c := contextPool.Get().(*Ctx)
	c.Request = req
	c.statusCode = StatusOK
	c.header = NewHeaders()
	c.body = c.body[:0]
	c.err = nil
	c.middlewareStack = c.middlewareStack[:0]
	c.middlewareIndex = -1
	c.handler = nil
	return c
}

// NewCtx builds a standalone Ctx bound to req, bypassing the pool. It is
// meant for tests and for invoking a Handler outside of a Server, where
// release() would have nothing to return the Ctx to.
func NewCtx(req *Request) *Ctx {
	return &Ctx{
		Request:    req,
		statusCode: StatusOK,
		header:     NewHeaders(),
		body:       make([]byte, 0, 512),
	}
}

// release returns c to the pool. It must not be used again afterward.
func (c *Ctx) release() {
	c.Request = nil
	contextPool.Put(c)
}

// Header returns the response header set being accumulated.
func (c *Ctx) Header() *Headers {
	return c.header
}

// Status sets the response status code and returns c for chaining.
func (c *Ctx) Status(code int) *Ctx {
	c.statusCode = code
	return c
}

// StatusCode returns the currently set response status code.
func (c *Ctx) StatusCode() int {
	return c.statusCode
}

// Param returns a path parameter bound by the router.
func (c *Ctx) Param(name string) string {
	v, _ := c.Request.Param(name)
	return v
}

// IP returns the originating connection's remote address.
func (c *Ctx) IP() string {
	return c.Request.RemoteAddr
}

// Get returns the named request header's value, empty if absent.
func (c *Ctx) Get(name string) string {
	v, _ := c.Request.Headers.Get(name)
	return v
}

// Query returns the first value of a query-string parameter.
func (c *Ctx) Query(name string) string {
	if c.Request.URI == nil || !c.Request.URI.HasQuery {
		return ""
	}
	for _, pair := range splitQuery(c.Request.URI.Query) {
		if pair[0] == name {
			return pair[1]
		}
	}
	return ""
}

func splitQuery(q string) [][2]string {
	var out [][2]string
	for _, part := range splitByte(q, '&') {
		if part == "" {
			continue
		}
		k, v := part, ""
		for i := 0; i < len(part); i++ {
			if part[i] == '=' {
				k, v = part[:i], part[i+1:]
				break
			}
		}
		out = append(out, [2]string{k, v})
	}
	return out
}

func splitByte(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// Run builds a Ctx for req, chains mw then h, executes it, and returns
// the Ctx so callers can inspect the resulting status/headers/body. It is
// the same wiring Group.Handle installs per route, exposed for invoking a
// middleware+handler pair directly without a Server.
func Run(req *Request, mw []MiddlewareFunc, h Handler) *Ctx {
	c := NewCtx(req)
	c.middlewareStack = mw
	c.middlewareIndex = -1
	c.handler = h
	c.Next()
	return c
}

// Write appends data to the response body being accumulated.
func (c *Ctx) Write(data []byte) (int, error) {
	c.body = append(c.body, data...)
	return len(data), nil
}

// String sets the response body to s with a text/plain content type.
func (c *Ctx) String(s string) *Ctx {
	c.header.Set(FieldContentType, "text/plain; charset=utf-8")
	c.body = append(c.body[:0], s...)
	return c
}

// JSON marshals v with goccy/go-json and sets it as the response body,
// grounded on the teacher's own use of goccy/go-json for JSON handling.
func (c *Ctx) JSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		c.err = err
		return err
	}
	c.header.Set(FieldContentType, "application/json")
	c.body = append(c.body[:0], data...)
	return nil
}

// BindJSON decodes the request body into v using goccy/go-json.
func (c *Ctx) BindJSON(v interface{}) error {
	data, err := DrainBody(c.Request.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Error records err to be surfaced as an HttpError by the caller; it does
// not itself write a response.
func (c *Ctx) Error(err error) *Ctx {
	c.err = err
	return c
}

// Err returns the error recorded by the handler via Error, or JSON/BindJSON
// failures, nil if none.
func (c *Ctx) Err() error {
	return c.err
}

// Next invokes the next middleware in the stack, then the handler once
// the stack is exhausted, mirroring the teacher's middleware-index
// cursor pattern.
func (c *Ctx) Next() {
	c.middlewareIndex++
	if c.middlewareIndex < len(c.middlewareStack) {
		c.middlewareStack[c.middlewareIndex](c)
		return
	}
	if c.handler != nil {
		c.handler(c)
	}
}

// response builds the final *Response from the accumulated status,
// headers, and body.
func (c *Ctx) response() (*Response, error) {
	if !c.header.Has(FieldContentType) && len(c.body) > 0 {
		c.header.Set(FieldContentType, "text/plain; charset=utf-8")
	}
	return NewResponseBuilder().
		Status(c.statusCode).
		Body(NewBufferBody(c.body)).
		setHeaders(c.header).
		Build()
}

// setHeaders replaces the builder's header set outright, used when a
// fully-populated Headers (like Ctx.header) already exists.
func (b *ResponseBuilder) setHeaders(h *Headers) *ResponseBuilder {
	b.headers = h
	return b
}
