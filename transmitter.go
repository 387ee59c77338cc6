package shttp

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/valyala/bytebufferpool"
)

// IOProvider is the byte-stream abstraction the Transmitter is bound to,
// grounded on spec.md §6's I/O provider contract (read/write/readline/
// get_char with a per-call timeout) and
// original_source/http/include/common/bufio.h. A net.Conn satisfies it
// once wrapped by NewConnIO.
type IOProvider interface {
	io.Reader
	io.Writer
	// SetDeadline arms the per-call timeout; exceeding it surfaces as a
	// timeout error from the next Read/Write, matching the "try_again /
	// timed_out" status vocabulary of spec.md §6.
	SetDeadline(t time.Time) error
}

// connIO adapts a net.Conn to IOProvider.
type connIO struct {
	net.Conn
}

// NewConnIO wraps conn as an IOProvider.
func NewConnIO(conn net.Conn) IOProvider {
	return &connIO{Conn: conn}
}

// Transmitter serializes and parses HTTP/1.1 messages over an IOProvider,
// grounded on original_source/http/src/common/transmit.cpp's
// send_request/recv_request/send_response/recv_response.
type Transmitter struct {
	io      IOProvider
	r       *bufio.Reader
	Timeout time.Duration
}

// NewTransmitter binds a Transmitter to io, defaulting the per-call
// timeout to 1000ms to match transmit.cpp's recv_line/send_data.
func NewTransmitter(io IOProvider) *Transmitter {
	return &Transmitter{io: io, r: bufio.NewReader(io), Timeout: 1000 * time.Millisecond}
}

func (t *Transmitter) deadline() time.Time {
	if t.Timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(t.Timeout)
}

// recvLine reads one CRLF- (or bare-LF-) terminated line and strips the
// terminator, grounded on transmit.cpp's recv_line.
func (t *Transmitter) recvLine() (string, error) {
	if err := t.io.SetDeadline(t.deadline()); err != nil {
		return "", &SystemError{Op: "set deadline", Err: err}
	}
	line, err := t.r.ReadString('\n')
	if err != nil {
		return "", &SystemError{Op: "read line", Err: err}
	}
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
		if n > 0 && line[n-1] == '\r' {
			n--
		}
	}
	return line[:n], nil
}

func (t *Transmitter) sendData(p []byte) error {
	if err := t.io.SetDeadline(t.deadline()); err != nil {
		return &SystemError{Op: "set deadline", Err: err}
	}
	n, err := t.io.Write(p)
	if err != nil {
		return &SystemError{Op: "write", Err: err}
	}
	if n != len(p) {
		return &SystemError{Op: "write", Err: io.ErrShortWrite}
	}
	return nil
}

// sendBody writes body, chunked or length-delimited per Body.Chunked,
// grounded on transmit.cpp's send_body.
func (t *Transmitter) sendBody(buf *bytebufferpool.ByteBuffer, body Body) error {
	if body == nil {
		return t.sendData(buf.B)
	}
	if body.Chunked() {
		if err := t.sendData(buf.B); err != nil {
			return err
		}
		for {
			chunk, exts, err := body.Next()
			if err == io.EOF {
				return t.sendData(lastChunk)
			}
			if err != nil {
				return err
			}
			if len(chunk) == 0 {
				continue
			}
			head := strconv.FormatInt(int64(len(chunk)), 16)
			for _, e := range exts {
				head += ";" + e.Name
				if e.Value != "" {
					head += "=" + e.Value
				}
			}
			if err := t.sendData([]byte(head + "\r\n")); err != nil {
				return err
			}
			if err := t.sendData(chunk); err != nil {
				return err
			}
			if err := t.sendData([]byte("\r\n")); err != nil {
				return err
			}
		}
	}
	if err := t.sendData(buf.B); err != nil {
		return err
	}
	length, _ := body.Length()
	var remaining = length
	for remaining > 0 {
		chunk, _, err := body.Next()
		if err != nil && err != io.EOF {
			return err
		}
		if len(chunk) > 0 {
			if err := t.sendData(chunk); err != nil {
				return err
			}
			remaining -= int64(len(chunk))
		}
		if err == io.EOF {
			break
		}
	}
	if remaining != 0 {
		return newBadMessage("body length did not match Content-Length")
	}
	return nil
}

// writeHeadPreamble renders everything up to and including the blank line
// that separates headers from the body into buf.
func writeHeadPreamble(buf *bytebufferpool.ByteBuffer, startLine string, h *Headers) error {
	buf.WriteString(startLine)
	buf.WriteString("\r\n")
	if err := h.Write(buf); err != nil {
		return err
	}
	buf.WriteString("\r\n")
	return nil
}

// SendRequest serializes and writes req.
func (t *Transmitter) SendRequest(req *Request) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	startLine := string(req.Method) + " " + req.Target + " " + req.Version.String()
	if err := writeHeadPreamble(buf, startLine, req.Headers); err != nil {
		return err
	}
	return t.sendBody(buf, req.Body)
}

// SendResponse serializes and writes resp.
func (t *Transmitter) SendResponse(resp *Response) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	startLine := resp.Version.String() + " " + strconv.Itoa(resp.Code) + " " + resp.Reason
	if err := writeHeadPreamble(buf, startLine, resp.Headers); err != nil {
		return err
	}
	return t.sendBody(buf, resp.Body)
}

// readHead reads the start line and header lines up to the blank line
// terminator, grounded on transmit.cpp's recv_request/recv_response loop
// ("read lines until an empty line is seen").
func (t *Transmitter) readHead() (startLine string, headers *Headers, err error) {
	startLine, err = t.recvLine()
	if err != nil {
		return "", nil, err
	}
	headers = NewHeaders()
	for {
		line, err := t.recvLine()
		if err != nil {
			return "", nil, err
		}
		if line == "" {
			break
		}
		if err := headers.AddLine(line); err != nil {
			return "", nil, err
		}
	}
	return startLine, headers, nil
}

// attachBody chooses chunked, length-delimited, or no body for headers,
// grounded on spec.md §4.7's recv_request/recv_response body-attachment
// rule.
func (t *Transmitter) attachBody(headers *Headers) (Body, error) {
	if headers.IsChunked() {
		return NewNetworkChunkedBody(t.r), nil
	}
	length, has, err := headers.ContentLength()
	if err != nil {
		return nil, err
	}
	if has && length > 0 {
		return NewNetworkLengthBody(t.r, length), nil
	}
	return nil, nil
}

// RecvRequest reads and parses one request.
func (t *Transmitter) RecvRequest() (*Request, error) {
	startLine, headers, err := t.readHead()
	if err != nil {
		return nil, err
	}
	b := NewRequestBuilder()
	b.RequestLine(startLine)
	b.headers = headers
	body, err := t.attachBody(headers)
	if err != nil {
		return nil, err
	}
	b.Body(body)
	return b.Build()
}

// RecvResponse reads and parses one response.
func (t *Transmitter) RecvResponse() (*Response, error) {
	startLine, headers, err := t.readHead()
	if err != nil {
		return nil, err
	}
	b := NewResponseBuilder()
	b.StatusLine(startLine)
	b.headers = headers
	body, err := t.attachBody(headers)
	if err != nil {
		return nil, err
	}
	b.Body(body)
	return b.Build()
}
