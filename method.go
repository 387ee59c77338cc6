package shttp

// Method is an HTTP/1.1 request method. Unlike the original C++ enum
// (original_source/http/include/common/method.h), the wire representation
// is kept as the canonical uppercase token string rather than an integer,
// since the router and handler registration APIs key directly off it.
type Method string

// The methods recognized by the engine. Matching is exact-case, per the
// data model: lowercase or mixed-case tokens are not normalized, they are
// simply methods the router was never asked to register.
const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

var knownMethods = map[Method]struct{}{
	MethodGet: {}, MethodHead: {}, MethodPost: {}, MethodPut: {},
	MethodDelete: {}, MethodConnect: {}, MethodOptions: {}, MethodTrace: {},
}

// Known reports whether m is one of the eight methods above. An unknown
// method is not itself an error at the scanner layer; RequestBuilder's
// RequestLine rejects it as not implemented, while Build only rejects an
// empty method.
func (m Method) Known() bool {
	_, ok := knownMethods[m]
	return ok
}
