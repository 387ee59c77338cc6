package shttp

import (
	"fmt"
	"strconv"
	"strings"
)

// URI is a parsed RFC 3986 URI reference, grounded on
// original_source/http/include/common/uri.h's component hierarchy
// (uri_scheme, uri_userinfo, uri_host, uri_port, uri_path, uri_query,
// uri_fragment aggregated by the uri class). Each component tracks its own
// presence, since e.g. an empty query ("?") differs from no query at all.
type URI struct {
	Scheme      string
	HasScheme   bool
	UserInfo    string
	HasUserInfo bool
	Host        string
	HasHost     bool
	Port        string
	HasPort     bool
	Path        string // always present, possibly empty
	Query       string
	HasQuery    bool
	Fragment    string
	HasFragment bool
}

// BadURIError reports a malformed URI reference, grounded on uri.h's
// bad_uri exception.
type BadURIError struct {
	Input  string
	Reason string
}

func (e *BadURIError) Error() string {
	return fmt.Sprintf("bad uri %q: %s", e.Input, e.Reason)
}

func isUnreserved(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

func isSubDelim(c byte) bool {
	switch c {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'A' && c <= 'F' || c >= 'a' && c <= 'f'
}

// validPercentEncoding reports whether every "%" in s is followed by two
// hex digits, mirroring uri_percent_encoded's validation role in uri.h.
func validPercentEncoding(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
				return false
			}
		}
	}
	return true
}

// ParseURI parses a URI reference (absolute or relative) per RFC 3986
// Appendix B, validating each component the way uri_component::is_valid
// implementations do in the original.
func ParseURI(raw string) (*URI, error) {
	u := &URI{}
	rest := raw

	// fragment
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		u.Fragment = rest[i+1:]
		u.HasFragment = true
		rest = rest[:i]
	}

	// query
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		u.Query = rest[i+1:]
		u.HasQuery = true
		rest = rest[:i]
	}

	// scheme: ALPHA *( ALPHA / DIGIT / "+" / "-" / "." ) ":"
	if i := strings.IndexByte(rest, ':'); i > 0 {
		maybeScheme := rest[:i]
		if isValidScheme(maybeScheme) {
			u.Scheme = strings.ToLower(maybeScheme)
			u.HasScheme = true
			rest = rest[i+1:]
		}
	}

	// authority
	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		authEnd := len(rest)
		for i := 0; i < len(rest); i++ {
			if rest[i] == '/' || rest[i] == '?' || rest[i] == '#' {
				authEnd = i
				break
			}
		}
		authority := rest[:authEnd]
		rest = rest[authEnd:]

		if at := strings.LastIndexByte(authority, '@'); at >= 0 {
			u.UserInfo = authority[:at]
			u.HasUserInfo = true
			authority = authority[at+1:]
		}
		host, port, hasPort, err := splitHostPort(authority)
		if err != nil {
			return nil, &BadURIError{Input: raw, Reason: err.Error()}
		}
		u.Host = host
		u.HasHost = true
		u.Port = port
		u.HasPort = hasPort
	}

	u.Path = rest

	if !validPercentEncoding(u.Path) || !validPercentEncoding(u.Query) || !validPercentEncoding(u.Fragment) {
		return nil, &BadURIError{Input: raw, Reason: "invalid percent-encoding"}
	}

	return u, nil
}

func isValidScheme(s string) bool {
	if s == "" {
		return false
	}
	c0 := s[0]
	if !(c0 >= 'A' && c0 <= 'Z' || c0 >= 'a' && c0 <= 'z') {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.' {
			continue
		}
		return false
	}
	return true
}

// splitHostPort splits an authority (without userinfo) into host and an
// optional port, handling IPv6 literals in brackets per uri_host.
func splitHostPort(authority string) (host, port string, hasPort bool, err error) {
	if strings.HasPrefix(authority, "[") {
		end := strings.IndexByte(authority, ']')
		if end < 0 {
			return "", "", false, fmt.Errorf("unterminated IPv6 literal")
		}
		host = authority[:end+1]
		rest := authority[end+1:]
		if rest == "" {
			return host, "", false, nil
		}
		if rest[0] != ':' {
			return "", "", false, fmt.Errorf("invalid authority after IPv6 literal")
		}
		return host, rest[1:], true, validatePort(rest[1:])
	}
	if i := strings.LastIndexByte(authority, ':'); i >= 0 {
		return authority[:i], authority[i+1:], true, validatePort(authority[i+1:])
	}
	return authority, "", false, nil
}

func validatePort(p string) error {
	if p == "" {
		return nil
	}
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return fmt.Errorf("invalid port %q", p)
		}
	}
	return nil
}

// PortNumber returns the numeric port, or -1 if none was given.
func (u *URI) PortNumber() int {
	if !u.HasPort || u.Port == "" {
		return -1
	}
	n, err := strconv.Atoi(u.Port)
	if err != nil {
		return -1
	}
	return n
}

// IsAbsolute reports whether the URI carries a scheme.
func (u *URI) IsAbsolute() bool {
	return u.HasScheme
}

// String renders the URI, matching the component order of uri.h's
// operator<<: scheme ":" "//" [userinfo "@"] host [":" port] path
// ["?" query] ["#" fragment].
func (u *URI) String() string {
	var b strings.Builder
	if u.HasScheme {
		b.WriteString(u.Scheme)
		b.WriteByte(':')
	}
	if u.HasHost {
		b.WriteString("//")
		if u.HasUserInfo {
			b.WriteString(u.UserInfo)
			b.WriteByte('@')
		}
		b.WriteString(u.Host)
		if u.HasPort && u.Port != "" {
			b.WriteByte(':')
			b.WriteString(u.Port)
		}
	}
	b.WriteString(u.Path)
	if u.HasQuery {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	if u.HasFragment {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}

// removeDotSegments implements RFC 3986 §5.2.4.
func removeDotSegments(path string) string {
	var out []string
	in := path
	trailingSlash := false
	for in != "" {
		switch {
		case strings.HasPrefix(in, "../"):
			in = in[3:]
		case strings.HasPrefix(in, "./"):
			in = in[2:]
		case strings.HasPrefix(in, "/./"):
			in = "/" + in[3:]
		case in == "/.":
			in = "/"
			trailingSlash = true
		case strings.HasPrefix(in, "/../"):
			in = "/" + in[4:]
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case in == "/..":
			in = "/"
			trailingSlash = true
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		case in == ".":
			in = ""
		case in == "..":
			in = ""
		default:
			var seg string
			if in[0] == '/' {
				rest := in[1:]
				end := strings.IndexByte(rest, '/')
				if end < 0 {
					seg = in
					in = ""
				} else {
					seg = "/" + rest[:end]
					in = rest[end:]
				}
			} else {
				end := strings.IndexByte(in, '/')
				if end < 0 {
					seg = in
					in = ""
				} else {
					seg = in[:end]
					in = in[end:]
				}
			}
			out = append(out, seg)
		}
	}
	result := strings.Join(out, "")
	if trailingSlash && !strings.HasSuffix(result, "/") {
		result += "/"
	}
	return result
}

// mergePaths implements RFC 3986 §5.3's merge(base, ref) for the case
// where the reference path is relative, grounded on uri_path::merge in
// uri.h.
func mergePaths(base *URI, refPath string) string {
	if base.HasHost && base.Path == "" {
		return "/" + refPath
	}
	if i := strings.LastIndexByte(base.Path, '/'); i >= 0 {
		return base.Path[:i+1] + refPath
	}
	return refPath
}

// Resolve implements RFC 3986 §5.3's "Transform References" algorithm,
// resolving the receiver as a reference against base. It is grounded on
// uri.h's uri::merge(const uri&) const, whose 40-case behavior is pinned
// by original_source/http/tests/uritest.h.
func (ref *URI) Resolve(base *URI) *URI {
	t := &URI{}
	switch {
	case ref.HasScheme:
		t.HasScheme, t.Scheme = true, ref.Scheme
		t.HasHost, t.Host, t.HasUserInfo, t.UserInfo, t.HasPort, t.Port = ref.HasHost, ref.Host, ref.HasUserInfo, ref.UserInfo, ref.HasPort, ref.Port
		t.Path = removeDotSegments(ref.Path)
		t.HasQuery, t.Query = ref.HasQuery, ref.Query
	case ref.HasHost:
		t.HasHost, t.Host, t.HasUserInfo, t.UserInfo, t.HasPort, t.Port = true, ref.Host, ref.HasUserInfo, ref.UserInfo, ref.HasPort, ref.Port
		t.Path = removeDotSegments(ref.Path)
		t.HasQuery, t.Query = ref.HasQuery, ref.Query
		t.HasScheme, t.Scheme = base.HasScheme, base.Scheme
	case ref.Path == "":
		t.Path = base.Path
		if ref.HasQuery {
			t.HasQuery, t.Query = true, ref.Query
		} else {
			t.HasQuery, t.Query = base.HasQuery, base.Query
		}
		t.HasScheme, t.Scheme = base.HasScheme, base.Scheme
		t.HasHost, t.Host, t.HasUserInfo, t.UserInfo, t.HasPort, t.Port = base.HasHost, base.Host, base.HasUserInfo, base.UserInfo, base.HasPort, base.Port
	default:
		if strings.HasPrefix(ref.Path, "/") {
			t.Path = removeDotSegments(ref.Path)
		} else {
			t.Path = removeDotSegments(mergePaths(base, ref.Path))
		}
		t.HasQuery, t.Query = ref.HasQuery, ref.Query
		t.HasScheme, t.Scheme = base.HasScheme, base.Scheme
		t.HasHost, t.Host, t.HasUserInfo, t.UserInfo, t.HasPort, t.Port = base.HasHost, base.Host, base.HasUserInfo, base.UserInfo, base.HasPort, base.Port
	}
	t.HasFragment, t.Fragment = ref.HasFragment, ref.Fragment
	return t
}
