package shttp

import "strings"

// Request is an immutable, fully-parsed HTTP/1.1 request message,
// grounded on original_source/http/include/common/request.h/rqst.h and
// spec.md §4.6. It is built once, either by a RequestBuilder or by the
// Transmitter's RecvRequest. Afterward only two fields are set: the router
// stores the matched path parameters in Params, and the server sets
// RemoteAddr.
type Request struct {
	Method  Method
	Target  string // request-target exactly as it appeared on the wire
	URI     *URI   // Target parsed as a URI reference
	Version Version
	Headers *Headers
	Body    Body

	// Params holds path parameters bound by the router for this request,
	// e.g. {"id": "42"} for a route registered as "/users/{id}". It is
	// nil until the router dispatches the request.
	Params map[string]string

	// RemoteAddr is the originating connection's address, set by the
	// server as it hands off a parsed Request; empty for requests built
	// directly via RequestBuilder.
	RemoteAddr string
}

// Param returns the named path parameter, if the router bound one.
func (r *Request) Param(name string) (string, bool) {
	if r.Params == nil {
		return "", false
	}
	v, ok := r.Params[name]
	return v, ok
}

// Path returns the request target's path component.
func (r *Request) Path() string {
	if r.URI == nil {
		return r.Target
	}
	return r.URI.Path
}

// RequestBuilder builds a Request via a fluent API, grounded on spec.md
// §4.6's builder pattern: invalid inputs are reported as an *Error at
// Build() time, never deferred to the wire (an empty method or an
// unparsable target as a bad message, an unsupported version as HTTP
// version not supported).
type RequestBuilder struct {
	method  Method
	target  string
	version Version
	headers *Headers
	body    Body
	err     error
}

// NewRequestBuilder starts a new builder with HTTP/1.1 as the default
// version, matching the common case.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{version: Version11, headers: NewHeaders()}
}

// Method sets the request method. An empty method is rejected at Build().
func (b *RequestBuilder) Method(m Method) *RequestBuilder {
	b.method = m
	return b
}

// Target sets the request-target (origin-form, absolute-form, authority-
// form, or asterisk-form).
func (b *RequestBuilder) Target(target string) *RequestBuilder {
	b.target = target
	return b
}

// Version sets the protocol version.
func (b *RequestBuilder) Version(v Version) *RequestBuilder {
	b.version = v
	return b
}

// RequestLine parses "METHOD SP request-target SP HTTP/M.N" in one call,
// grounded on spec.md §4.6's textual-line convenience form. Extra
// whitespace and empty components are rejected as a bad message; an
// unknown method is rejected as not implemented.
func (b *RequestBuilder) RequestLine(line string) *RequestBuilder {
	sc := newScanner(line)
	method, ok := sc.readToken(false)
	if !ok {
		b.err = newBadMessage("missing method in request line")
		return b
	}
	if !Method(method).Known() {
		b.err = newNotImplemented("unknown method in request line: " + method)
		return b
	}
	if !sc.readSpace() {
		b.err = newBadMessage("malformed request line: " + line)
		return b
	}
	target, ok := sc.readURI()
	if !ok {
		b.err = newBadMessage("malformed request-target: " + line)
		return b
	}
	if !sc.readSpace() {
		b.err = newBadMessage("malformed request line: " + line)
		return b
	}
	ver, ok := sc.readVersion()
	if !ok {
		b.err = newBadMessage("malformed version in request line: " + line)
		return b
	}
	if !sc.readCRLF() {
		b.err = newBadMessage("trailing data in request line: " + line)
		return b
	}
	b.method = Method(method)
	b.target = target
	b.version = ver
	return b
}

// Header adds a header field.
func (b *RequestBuilder) Header(name, value string) *RequestBuilder {
	b.headers.Add(name, value)
	return b
}

// HeaderLine parses and adds one raw "name: value" line.
func (b *RequestBuilder) HeaderLine(line string) *RequestBuilder {
	if err := b.headers.AddLine(line); err != nil {
		b.err = err
	}
	return b
}

// Body attaches a message body.
func (b *RequestBuilder) Body(body Body) *RequestBuilder {
	b.body = body
	return b
}

// Build validates and returns the Request, or the first error
// encountered.
func (b *RequestBuilder) Build() (*Request, error) {
	if b.err != nil {
		return nil, b.err
	}
	if strings.TrimSpace(string(b.method)) == "" {
		return nil, &Error{Kind: ErrBadMessage, Message: "invalid_argument: empty method"}
	}
	if !b.version.Supported() {
		return nil, newHTTPVersionNotSupported("unsupported version: " + b.version.String())
	}
	if err := b.headers.ValidateFraming(); err != nil {
		return nil, err
	}
	uri, err := ParseURI(b.target)
	if err != nil {
		return nil, &Error{Kind: ErrBadMessage, Message: "invalid request-target", Err: err}
	}
	return &Request{
		Method:  b.method,
		Target:  b.target,
		URI:     uri,
		Version: b.version,
		Headers: b.headers,
		Body:    b.body,
	}, nil
}
