package shttp

import (
	"strconv"
	"strings"
	"time"
)

// Well-known field names, grounded on
// original_source/http/include/common/headers.h's field-name constants.
const (
	FieldContentLength    = "Content-Length"
	FieldTransferEncoding = "Transfer-Encoding"
	FieldTE               = "TE"
	FieldTrailers         = "Trailers"
	FieldHost             = "Host"
	FieldVia              = "Via"
	FieldConnection       = "Connection"
	FieldContentType      = "Content-Type"
	FieldContentEncoding  = "Content-Encoding"
	FieldContentLanguage  = "Content-Language"
	FieldContentLocation  = "Content-Location"
	FieldDate             = "Date"
)

// headerRecord is one name/raw-value pair. Headers keeps these in an
// ordered slice rather than a map, grounded on headers.h's hdr_vec_t
// (vector<pair<name, shared_ptr<base_value>>>): field order as received
// or inserted is preserved on the wire.
type headerRecord struct {
	name string // canonical case, e.g. "Content-Type"
	raw  string
}

// Headers is the ordered, case-insensitive field set carried by Request
// and Response, grounded on headers.h/.cpp's headers class: the wire-level
// type the Scanner, Transmitter, and Request/Response builders operate on.
type Headers struct {
	records []headerRecord
}

// NewHeaders returns an empty Headers set.
func NewHeaders() *Headers {
	return &Headers{}
}

func canonicalFieldName(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, "-")
}

func (h *Headers) indexOf(name string) int {
	for i := range h.records {
		if strings.EqualFold(h.records[i].name, name) {
			return i
		}
	}
	return -1
}

// Add appends value to name's raw value. If name already has a value, the
// new value is joined with ", " per the sequence_value append semantics
// of hval.h's sequence_value::operator+=; otherwise a new record is
// created in canonical case, preserving the order fields were first seen.
func (h *Headers) Add(name, value string) {
	i := h.indexOf(name)
	if i < 0 {
		h.records = append(h.records, headerRecord{name: canonicalFieldName(name), raw: value})
		return
	}
	if h.records[i].raw == "" {
		h.records[i].raw = value
	} else {
		h.records[i].raw = h.records[i].raw + ", " + value
	}
}

// Set replaces name's value outright, inserting a new record if absent.
func (h *Headers) Set(name, value string) {
	i := h.indexOf(name)
	if i < 0 {
		h.records = append(h.records, headerRecord{name: canonicalFieldName(name), raw: value})
		return
	}
	h.records[i].raw = value
}

// Get returns name's raw value and whether it was present.
func (h *Headers) Get(name string) (string, bool) {
	i := h.indexOf(name)
	if i < 0 {
		return "", false
	}
	return h.records[i].raw, true
}

// Del removes name, if present.
func (h *Headers) Del(name string) {
	i := h.indexOf(name)
	if i < 0 {
		return
	}
	h.records = append(h.records[:i], h.records[i+1:]...)
}

// Has reports whether name is present.
func (h *Headers) Has(name string) bool {
	return h.indexOf(name) >= 0
}

// Len returns the number of fields.
func (h *Headers) Len() int { return len(h.records) }

// Range calls fn for each field in insertion order.
func (h *Headers) Range(fn func(name, value string)) {
	for _, r := range h.records {
		fn(r.name, r.raw)
	}
}

// Clone returns a deep copy.
func (h *Headers) Clone() *Headers {
	out := &Headers{records: make([]headerRecord, len(h.records))}
	copy(out.records, h.records)
	return out
}

// stringWriter is satisfied by bytes.Buffer, bufio.Writer, and
// bytebufferpool.ByteBuffer alike, letting Write target whichever
// scratch buffer its caller already holds.
type stringWriter interface {
	WriteString(s string) (int, error)
}

// Write serializes the field set in wire format, "Name: value\r\n" per
// field, in insertion order.
func (h *Headers) Write(w stringWriter) error {
	for _, r := range h.records {
		if _, err := w.WriteString(r.name); err != nil {
			return err
		}
		if _, err := w.WriteString(": "); err != nil {
			return err
		}
		if _, err := w.WriteString(r.raw); err != nil {
			return err
		}
		if _, err := w.WriteString("\r\n"); err != nil {
			return err
		}
	}
	return nil
}

// AddLine parses one raw "name: value" header line and adds it, grounded
// on headers.cpp's add(istr) state machine. Leading/trailing OWS around the
// value is skipped; the value itself must be a run of token characters,
// double-quoted spans, and parenthesized comments, with backslash escapes
// honored inside either — anything else, including a stray control
// character or an unterminated quote/comment, is a bad message.
func (h *Headers) AddLine(line string) error {
	i := strings.IndexByte(line, ':')
	if i <= 0 {
		return newBadMessage("malformed header line: " + line)
	}
	name := line[:i]
	for j := 0; j < len(name); j++ {
		if !isTokenChar(name[j]) {
			return newBadMessage("malformed header name: " + name)
		}
	}
	sc := newScanner(line[i+1:])
	sc.readOptSpace()
	value, ok := sc.readFieldValue()
	if !ok {
		return newBadMessage("malformed header value: " + line)
	}
	sc.readOptSpace()
	if !sc.eof() {
		return newBadMessage("malformed header value: " + line)
	}
	h.Add(name, value)
	return nil
}

// ContentLength returns the parsed Content-Length, if present and valid.
func (h *Headers) ContentLength() (int64, bool, error) {
	raw, ok := h.Get(FieldContentLength)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 0, true, newBadMessage("invalid Content-Length: " + raw)
	}
	return n, true, nil
}

// TransferEncoding returns the comma-separated coding names in order.
func (h *Headers) TransferEncoding() []string {
	raw, ok := h.Get(FieldTransferEncoding)
	if !ok {
		return nil
	}
	return splitCommaList(raw)
}

// IsChunked reports whether "chunked" is the last coding in
// Transfer-Encoding, the only position where chunked framing is honored.
func (h *Headers) IsChunked() bool {
	te := h.TransferEncoding()
	if len(te) == 0 {
		return false
	}
	return strings.EqualFold(te[len(te)-1], EncodingChunked)
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Host returns the parsed Host field.
func (h *Headers) Host() (HostPort, bool, error) {
	raw, ok := h.Get(FieldHost)
	if !ok {
		return HostPort{}, false, nil
	}
	hp, err := ParseHostPort(raw)
	if err != nil {
		return HostPort{}, true, err
	}
	return hp, true, nil
}

// Connection returns the Connection field's tokens, each validated
// against the close/keep-alive/upgrade vocabulary spec.md §4.3 requires;
// an out-of-vocabulary option is a not_implemented error (501).
func (h *Headers) Connection() ([]string, error) {
	raw, ok := h.Get(FieldConnection)
	if !ok {
		return nil, nil
	}
	tokens := splitCommaList(raw)
	for _, tok := range tokens {
		if !ValidConnection(tok) {
			return nil, newNotImplemented("unsupported Connection option: " + tok)
		}
	}
	return tokens, nil
}

// HasConnectionToken reports whether token appears in Connection,
// case-insensitively. A Connection field carrying an out-of-vocabulary
// option is treated as not having token, the error having already been
// surfaced to whatever caller validates the field directly.
func (h *Headers) HasConnectionToken(token string) bool {
	tokens, err := h.Connection()
	if err != nil {
		return false
	}
	for _, t := range tokens {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}

// ContentType returns the parsed Content-Type media type, validated
// against the text/plain or application/json vocabulary spec.md §4.3
// requires; anything else is a not_implemented error (501).
func (h *Headers) ContentType() (MediaType, bool, error) {
	raw, ok := h.Get(FieldContentType)
	if !ok {
		return MediaType{}, false, nil
	}
	mt, err := ParseMediaType(raw)
	if err != nil {
		return MediaType{}, true, err
	}
	if !ValidMediaType(mt) {
		return MediaType{}, true, newNotImplemented("unsupported media type: " + mt.String())
	}
	return mt, true, nil
}

// ContentEncoding returns the Content-Encoding coding names, in order,
// each validated against the closed vocabulary spec.md §4.3 lists; an
// out-of-vocabulary coding is a not_implemented error (501).
func (h *Headers) ContentEncoding() ([]string, error) {
	raw, ok := h.Get(FieldContentEncoding)
	if !ok {
		return nil, nil
	}
	codings := splitCommaList(raw)
	for _, c := range codings {
		if !ValidEncoding(c) {
			return nil, newNotImplemented("unsupported content encoding: " + c)
		}
	}
	return codings, nil
}

// ContentLanguage returns the Content-Language tags, in order.
func (h *Headers) ContentLanguage() []string {
	raw, ok := h.Get(FieldContentLanguage)
	if !ok {
		return nil
	}
	return splitCommaList(raw)
}

// ContentLocation returns the parsed Content-Location URI reference.
func (h *Headers) ContentLocation() (*URI, bool, error) {
	raw, ok := h.Get(FieldContentLocation)
	if !ok {
		return nil, false, nil
	}
	u, err := ParseURI(raw)
	if err != nil {
		return nil, true, err
	}
	return u, true, nil
}

// httpDateLayouts are the three Date formats RFC 7231 §7.1.1.1 requires a
// recipient to accept; the first is the only one a sender should emit.
var httpDateLayouts = []string{
	time.RFC1123, // preferred: "Mon, 02 Jan 2006 15:04:05 MST"
	time.RFC850,
	time.ANSIC,
}

// Date returns the parsed Date field.
func (h *Headers) Date() (time.Time, bool, error) {
	raw, ok := h.Get(FieldDate)
	if !ok {
		return time.Time{}, false, nil
	}
	for _, layout := range httpDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, true, newBadMessage("invalid Date: " + raw)
}

// Via returns the parsed Via field elements, in order.
func (h *Headers) Via() ([]Via, bool, error) {
	raw, ok := h.Get(FieldVia)
	if !ok {
		return nil, false, nil
	}
	parts := splitCommaList(raw)
	out := make([]Via, 0, len(parts))
	for _, p := range parts {
		v, err := ParseVia(p)
		if err != nil {
			return nil, true, err
		}
		out = append(out, v)
	}
	return out, true, nil
}

// ValidateFraming checks the Content-Length/Transfer-Encoding invariant
// of spec.md §4.6: a message must not carry both, and Content-Length, if
// present, must be a single non-negative integer.
func (h *Headers) ValidateFraming() error {
	_, hasCL, err := h.ContentLength()
	if err != nil {
		return err
	}
	hasTE := h.Has(FieldTransferEncoding)
	if hasCL && hasTE {
		return newBadMessage("message carries both Content-Length and Transfer-Encoding")
	}
	return nil
}
