// Package httpparser locates HTTP/1.1 message boundaries inside a
// connection's inbound buffer using wildcat's HTTPParser, grounded on the
// teacher's own internal/httpparser.Codec. It answers one question only —
// "how many bytes, starting at offset 0, make up the next complete
// request?" — and hands the raw bytes back to the caller, which parses
// them with the message engine's own Scanner/RequestBuilder. It does not
// build Request/Response values itself.
package httpparser

import (
	"bytes"
	"errors"
	"strconv"
	"sync"

	"github.com/evanphx/wildcat"

	"github.com/wma1729/snf-http/internal/unsafe"
)

var (
	crlf      = []byte("\r\n\r\n")
	lastChunk = []byte("0\r\n\r\n")

	contentLengthBytes = []byte("Content-Length")
)

var parserPool = sync.Pool{
	New: func() interface{} {
		return wildcat.NewHTTPParser()
	},
}

// ErrIncompleteBody is returned when the buffer holds a complete head but
// not yet the whole body.
var ErrIncompleteBody = errors.New("httpparser: incomplete body")

// ErrInvalidChunk is returned when chunk framing within the buffer is
// malformed.
var ErrInvalidChunk = errors.New("httpparser: invalid chunk")

// Codec holds one connection's reusable wildcat parser and accumulation
// buffer, grounded on the teacher's Codec.
type Codec struct {
	Parser        *wildcat.HTTPParser
	ContentLength int
	Buf           []byte
}

// NewCodec returns a pooled Codec ready for a new connection.
func NewCodec() *Codec {
	c := codecPool.Get().(*Codec)
	c.ContentLength = -1
	if c.Parser == nil {
		c.Parser = parserPool.Get().(*wildcat.HTTPParser)
	}
	c.Buf = c.Buf[:0]
	return c
}

// ReleaseCodec returns a Codec to the pool.
func ReleaseCodec(c *Codec) {
	c.Reset()
	codecPool.Put(c)
}

var codecPool = sync.Pool{
	New: func() interface{} {
		return &Codec{
			Parser:        parserPool.Get().(*wildcat.HTTPParser),
			ContentLength: -1,
		}
	},
}

// ResetParser clears the cached Content-Length between messages on the
// same connection.
func (hc *Codec) ResetParser() {
	hc.ContentLength = -1
}

// Reset prepares hc to scan another connection's fresh byte stream.
func (hc *Codec) Reset() {
	hc.ResetParser()
	hc.Buf = hc.Buf[:0]
	if hc.Parser == nil {
		hc.Parser = parserPool.Get().(*wildcat.HTTPParser)
	}
}

// Parse scans data for one complete request-line+headers+body. On success
// it returns the number of bytes consumed and the raw body slice (nil for
// bodyless requests; for chunked requests, the still-encoded bytes up to
// and including the terminal zero-length chunk, which the caller decodes
// via NewNetworkChunkedBody). ErrIncompleteBody means data holds a complete
// head but the body hasn't fully arrived yet; the caller should wait for
// more bytes from the connection before retrying.
func (hc *Codec) Parse(data []byte) (int, []byte, error) {
	headEnd, err := hc.Parser.Parse(data)
	if err != nil {
		return 0, nil, err
	}

	if headEnd+3 < len(data) && data[headEnd] == '\r' && data[headEnd+1] == '\n' &&
		data[headEnd+2] == '\r' && data[headEnd+3] == '\n' {
		return headEnd + 4, nil, nil
	}

	if n := hc.GetContentLength(); n > -1 {
		bodyEnd := headEnd + n
		if len(data) >= bodyEnd {
			return bodyEnd, data[headEnd:bodyEnd], nil
		}
		return 0, nil, ErrIncompleteBody
	}

	if idx := bytes.Index(data[headEnd:], lastChunk); idx != -1 {
		bodyEnd := headEnd + idx + len(lastChunk)
		return bodyEnd, data[headEnd:bodyEnd], nil
	}

	if idx := bytes.Index(data, crlf); idx != -1 {
		return idx + 4, nil, nil
	}

	return 0, nil, ErrIncompleteBody
}

// GetContentLength reads the Content-Length header found by the last
// Parse call, -1 if absent or malformed. The value is cached until
// ResetParser is called.
func (hc *Codec) GetContentLength() int {
	if hc.ContentLength != -1 {
		return hc.ContentLength
	}
	val := hc.Parser.FindHeader(contentLengthBytes)
	if val == nil {
		hc.ContentLength = -1
		return -1
	}
	if unsafe.EqualBytes(val, "0") {
		hc.ContentLength = 0
		return 0
	}
	n, err := strconv.ParseInt(unsafe.B2S(val), 10, 31)
	if err != nil {
		hc.ContentLength = -1
		return -1
	}
	hc.ContentLength = int(n)
	return hc.ContentLength
}
