package shttp

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wma1729/snf-http/internal/filebuffer"
)

// chunkSize is the maximum number of bytes the buffer, string, file and
// network-length Body variants hand back from a single Next() call (the
// chunked and generator variants return whole chunks of any size),
// grounded on
// original_source/http/include/common/body.h's "static const int
// CHUNKSIZE = 65536".
const chunkSize = 64 * 1024

// Body is a message body stream, grounded on body.h's body class. A Body
// is read forward-only via Next; implementations return io.EOF once
// exhausted. Chunked implementations additionally carry per-chunk
// extensions, mirroring chunk_extensions()'s param_vec_t.
type Body interface {
	// Length returns the body's total length and true if known in
	// advance (buffer/string/file/network-length bodies); chunked and
	// generator bodies return (0, false).
	Length() (int64, bool)
	// Chunked reports whether this body must be framed with
	// Transfer-Encoding: chunked rather than Content-Length.
	Chunked() bool
	// Next returns the next slice of the body (at most chunkSize bytes for
	// non-chunked variants) and any chunk extensions that applied to it, or
	// io.EOF when exhausted.
	Next() ([]byte, []param, error)
	// Close releases any underlying resource (file descriptor, etc).
	Close() error
}

// bufferBody serves a body from an in-memory byte slice, grounded on
// body_factory::from_buffer.
type bufferBody struct {
	data []byte
	pos  int
}

// NewBufferBody wraps data (not copied) as a Body of known length.
func NewBufferBody(data []byte) Body {
	return &bufferBody{data: data}
}

// NewStringBody wraps s as a Body of known length, grounded on
// body_factory::from_string.
func NewStringBody(s string) Body {
	return &bufferBody{data: []byte(s)}
}

func (b *bufferBody) Length() (int64, bool) { return int64(len(b.data)), true }
func (b *bufferBody) Chunked() bool         { return false }
func (b *bufferBody) Close() error          { return nil }

func (b *bufferBody) Next() ([]byte, []param, error) {
	if b.pos >= len(b.data) {
		return nil, nil, io.EOF
	}
	end := b.pos + chunkSize
	if end > len(b.data) {
		end = len(b.data)
	}
	chunk := b.data[b.pos:end]
	b.pos = end
	return chunk, nil, nil
}

// fileBody streams a file's contents in chunkSize slices through a pooled
// scratch buffer, grounded on body_factory::from_file and repurposing
// internal/filebuffer's 64 KiB read-buffer pool (originally sized for a
// static-file cache, now the body reader's scratch space).
type fileBody struct {
	f    *os.File
	size int64
	buf  []byte
	done bool
}

// NewFileBody opens path and returns a Body that streams it in 64 KiB
// slices.
func NewFileBody(path string) (Body, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileBody{f: f, size: info.Size(), buf: filebuffer.GetReadBuffer()}, nil
}

func (b *fileBody) Length() (int64, bool) { return b.size, true }
func (b *fileBody) Chunked() bool         { return false }

func (b *fileBody) Close() error {
	if b.buf != nil {
		filebuffer.ReleaseReadBuffer(b.buf)
		b.buf = nil
	}
	return b.f.Close()
}

func (b *fileBody) Next() ([]byte, []param, error) {
	if b.done {
		return nil, nil, io.EOF
	}
	n, err := b.f.Read(b.buf)
	if n > 0 {
		if err == io.EOF {
			b.done = true
			return b.buf[:n], nil, nil
		}
		return b.buf[:n], nil, err
	}
	if err == nil {
		err = io.EOF
	}
	b.done = true
	return nil, nil, err
}

// GeneratorFunc produces the next slice of a generator-backed body,
// grounded on body.h's body_functor_t
// (std::function<int(void*,size_t,size_t*,param_vec_t*)>). It returns the
// produced bytes and any chunk extensions that apply to them; io.EOF ends
// the stream.
type GeneratorFunc func() ([]byte, []param, error)

// generatorBody serves a body from a caller-supplied function, grounded
// on body_factory::from_functor. Its length is never known in advance, so
// it is always sent with chunked framing.
type generatorBody struct {
	gen  GeneratorFunc
	done bool
}

// NewGeneratorBody wraps gen as a chunked Body.
func NewGeneratorBody(gen GeneratorFunc) Body {
	return &generatorBody{gen: gen}
}

func (b *generatorBody) Length() (int64, bool) { return 0, false }
func (b *generatorBody) Chunked() bool         { return true }
func (b *generatorBody) Close() error          { return nil }

func (b *generatorBody) Next() ([]byte, []param, error) {
	if b.done {
		return nil, nil, io.EOF
	}
	data, ext, err := b.gen()
	if err == io.EOF {
		b.done = true
	}
	return data, ext, err
}

// networkLengthBody reads a known-length body off a connection, grounded
// on body_factory::from_socket(io, length).
type networkLengthBody struct {
	r         io.Reader
	remaining int64
	buf       [chunkSize]byte
}

// NewNetworkLengthBody reads exactly length bytes from r.
func NewNetworkLengthBody(r io.Reader, length int64) Body {
	return &networkLengthBody{r: r, remaining: length}
}

func (b *networkLengthBody) Length() (int64, bool) { return b.remaining, true }
func (b *networkLengthBody) Chunked() bool         { return false }
func (b *networkLengthBody) Close() error          { return nil }

func (b *networkLengthBody) Next() ([]byte, []param, error) {
	if b.remaining <= 0 {
		return nil, nil, io.EOF
	}
	want := int64(len(b.buf))
	if b.remaining < want {
		want = b.remaining
	}
	n, err := io.ReadFull(b.r, b.buf[:want])
	b.remaining -= int64(n)
	if err != nil {
		return b.buf[:n], nil, &SystemError{Op: "read body", Err: err}
	}
	return b.buf[:n], nil, nil
}

// networkChunkedBody decodes HTTP/1.1 chunked transfer coding off a
// connection, grounded on body_factory::from_socket_chunked. Trailers after the terminal zero-length chunk are
// read and discarded, never parsed into a header set, resolving
// spec.md's Open Question 3.
type networkChunkedBody struct {
	r    *bufio.Reader
	done bool
}

// NewNetworkChunkedBody decodes chunked data from r.
func NewNetworkChunkedBody(r *bufio.Reader) Body {
	return &networkChunkedBody{r: r}
}

func (b *networkChunkedBody) Length() (int64, bool) { return 0, false }
func (b *networkChunkedBody) Chunked() bool         { return true }
func (b *networkChunkedBody) Close() error          { return nil }

func (b *networkChunkedBody) Next() ([]byte, []param, error) {
	if b.done {
		return nil, nil, io.EOF
	}
	line, err := b.r.ReadString('\n')
	if err != nil {
		return nil, nil, &SystemError{Op: "read chunk size", Err: err}
	}
	line = strings.TrimRight(line, "\r\n")

	sizeStr := line
	var exts []param
	if i := strings.IndexByte(line, ';'); i >= 0 {
		sizeStr = line[:i]
		sc := newScanner(line[i:])
		if parsed, ok := sc.readParameters(); ok {
			exts = parsed
		}
	}
	size, err := strconv.ParseInt(strings.TrimSpace(sizeStr), 16, 64)
	if err != nil || size < 0 {
		return nil, nil, newBadMessage("invalid chunk size: " + line)
	}

	if size == 0 {
		b.done = true
		if err := b.discardTrailers(); err != nil {
			return nil, nil, err
		}
		return nil, nil, io.EOF
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return nil, nil, &SystemError{Op: "read chunk data", Err: err}
	}
	if err := b.consumeCRLF(); err != nil {
		return nil, nil, err
	}
	return buf, exts, nil
}

func (b *networkChunkedBody) consumeCRLF() error {
	line, err := b.r.ReadString('\n')
	if err != nil {
		return &SystemError{Op: "read chunk terminator", Err: err}
	}
	if strings.TrimRight(line, "\r\n") != "" {
		return newBadMessage("malformed chunk terminator")
	}
	return nil
}

// discardTrailers reads and throws away trailer header lines up to the
// final empty line.
func (b *networkChunkedBody) discardTrailers() error {
	for {
		line, err := b.r.ReadString('\n')
		if err != nil {
			return &SystemError{Op: "read trailers", Err: err}
		}
		if strings.TrimRight(line, "\r\n") == "" {
			return nil
		}
	}
}

// DrainBody fully reads b into memory, for callers (handler bodies,
// tests) that want the whole message at once rather than streaming it.
func DrainBody(b Body) ([]byte, error) {
	var out []byte
	for {
		chunk, _, err := b.Next()
		if len(chunk) > 0 {
			out = append(out, chunk...)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}
