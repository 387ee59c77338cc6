package shttp

// Response is an immutable, fully-parsed HTTP/1.1 response message,
// grounded on original_source/http/include/common/response.h and
// spec.md §4.6.
type Response struct {
	Version Version
	Code    int
	Reason  string
	Headers *Headers
	Body    Body
}

// ResponseBuilder builds a Response via a fluent API, mirroring
// RequestBuilder. A status code with no Reason explicitly set defaults to
// StatusText(Code).
type ResponseBuilder struct {
	version Version
	code    int
	reason  string
	headers *Headers
	body    Body
	err     error
}

// NewResponseBuilder starts a new builder defaulting to HTTP/1.1 200 OK.
func NewResponseBuilder() *ResponseBuilder {
	return &ResponseBuilder{version: Version11, code: StatusOK, headers: NewHeaders()}
}

func (b *ResponseBuilder) Version(v Version) *ResponseBuilder {
	b.version = v
	return b
}

// Status sets the status code; the reason phrase defaults to
// StatusText(code) unless Reason is called afterward.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.code = code
	return b
}

func (b *ResponseBuilder) Reason(reason string) *ResponseBuilder {
	b.reason = reason
	return b
}

// StatusLine parses "HTTP/M.N SP status-code SP reason-phrase" in one
// call, grounded on spec.md §4.6's textual-line convenience form. The
// status code must be exactly three digits.
func (b *ResponseBuilder) StatusLine(line string) *ResponseBuilder {
	sc := newScanner(line)
	ver, ok := sc.readVersion()
	if !ok {
		b.err = newBadMessage("malformed status line: " + line)
		return b
	}
	if !sc.readSpace() {
		b.err = newBadMessage("malformed status line: " + line)
		return b
	}
	code, ok := sc.readStatus()
	if !ok {
		b.err = newBadMessage("malformed status code: " + line)
		return b
	}
	sc.readOptSpace()
	reason := sc.readReason()
	b.version = ver
	b.code = code
	b.reason = reason
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers.Add(name, value)
	return b
}

func (b *ResponseBuilder) HeaderLine(line string) *ResponseBuilder {
	if err := b.headers.AddLine(line); err != nil {
		b.err = err
	}
	return b
}

func (b *ResponseBuilder) Body(body Body) *ResponseBuilder {
	b.body = body
	return b
}

// Build validates and returns the Response.
func (b *ResponseBuilder) Build() (*Response, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.version.Supported() {
		return nil, newHTTPVersionNotSupported("unsupported version: " + b.version.String())
	}
	if b.code < 100 || b.code > 599 {
		return nil, &Error{Kind: ErrBadMessage, Message: "invalid_argument: status code out of range"}
	}
	if err := b.headers.ValidateFraming(); err != nil {
		return nil, err
	}
	reason := b.reason
	if reason == "" {
		reason = StatusText(b.code)
	}
	return &Response{
		Version: b.version,
		Code:    b.code,
		Reason:  reason,
		Headers: b.headers,
		Body:    b.body,
	}, nil
}
