package shttp

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is an HTTP message version: major.minor, e.g. HTTP/1.1.
//
// Grounded on original_source/http/include/common/version.h (struct
// version{m_major, m_minor}).
type Version struct {
	Major int
	Minor int
}

// Version10 and Version11 are the two versions the engine understands.
var (
	Version10 = Version{Major: 1, Minor: 0}
	Version11 = Version{Major: 1, Minor: 1}
)

// ParseVersion parses a string of the form "HTTP/M.N".
func ParseVersion(s string) (Version, error) {
	const prefix = "HTTP/"
	if !strings.HasPrefix(s, prefix) {
		return Version{}, &Error{Kind: ErrBadMessage, Message: "malformed version: " + s}
	}
	rest := s[len(prefix):]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return Version{}, &Error{Kind: ErrBadMessage, Message: "malformed version: " + s}
	}
	major, err := strconv.Atoi(rest[:dot])
	if err != nil {
		return Version{}, &Error{Kind: ErrBadMessage, Message: "malformed version: " + s}
	}
	minor, err := strconv.Atoi(rest[dot+1:])
	if err != nil {
		return Version{}, &Error{Kind: ErrBadMessage, Message: "malformed version: " + s}
	}
	return Version{Major: major, Minor: minor}, nil
}

// String renders the version as "HTTP/M.N".
func (v Version) String() string {
	return fmt.Sprintf("HTTP/%d.%d", v.Major, v.Minor)
}

// Supported reports whether the engine can process this version. Only
// HTTP/1.0 and HTTP/1.1 are supported; anything else maps to
// ErrHTTPVersionNotSupported (505) per the error taxonomy.
func (v Version) Supported() bool {
	return v.Major == 1 && (v.Minor == 0 || v.Minor == 1)
}
