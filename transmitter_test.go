package shttp

import (
	"bytes"
	"io"
	"testing"
	"time"
)

// memTransportIO is a loopback IOProvider over two independent buffers: one
// the Transmitter reads from, one it writes to. It lets tests exercise
// SendRequest/RecvRequest and SendResponse/RecvResponse without a real
// socket.
type memTransportIO struct {
	in  *bytes.Reader
	out *bytes.Buffer
}

func newMemTransportIO(in string) *memTransportIO {
	return &memTransportIO{in: bytes.NewReader([]byte(in)), out: &bytes.Buffer{}}
}

func (m *memTransportIO) Read(p []byte) (int, error)    { return m.in.Read(p) }
func (m *memTransportIO) Write(p []byte) (int, error)   { return m.out.Write(p) }
func (m *memTransportIO) SetDeadline(t time.Time) error { return nil }

func TestTransmitterSendRequest(t *testing.T) {
	io := newMemTransportIO("")
	tr := NewTransmitter(io)

	req, err := NewRequestBuilder().
		Method(MethodGet).
		Target("/a/b").
		Header(FieldHost, "example.com").
		Build()
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	if err := tr.SendRequest(req); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	want := "GET /a/b HTTP/1.1\r\nHost: example.com\r\n\r\n"
	if io.out.String() != want {
		t.Fatalf("wire = %q, want %q", io.out.String(), want)
	}
}

func TestTransmitterSendRequestWithBody(t *testing.T) {
	io := newMemTransportIO("")
	tr := NewTransmitter(io)

	req, err := NewRequestBuilder().
		Method(MethodPost).
		Target("/x").
		Header(FieldHost, "example.com").
		Header(FieldContentLength, "3").
		Body(NewStringBody("abc")).
		Build()
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	if err := tr.SendRequest(req); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	want := "POST /x HTTP/1.1\r\nHost: example.com\r\nContent-Length: 3\r\n\r\nabc"
	if io.out.String() != want {
		t.Fatalf("wire = %q, want %q", io.out.String(), want)
	}
}

func TestTransmitterSendResponseChunked(t *testing.T) {
	io := newMemTransportIO("")
	tr := NewTransmitter(io)

	chunks := [][]byte{[]byte("hello"), []byte(" world")}
	i := 0
	body := NewGeneratorBody(func() ([]byte, []param, error) {
		if i >= len(chunks) {
			return nil, nil, io.EOF
		}
		c := chunks[i]
		i++
		return c, nil, nil
	})

	resp, err := NewResponseBuilder().Status(StatusOK).Header(FieldTransferEncoding, "chunked").Body(body).Build()
	if err != nil {
		t.Fatalf("build response: %v", err)
	}

	if err := tr.SendResponse(resp); err != nil {
		t.Fatalf("SendResponse: %v", err)
	}

	want := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
	if io.out.String() != want {
		t.Fatalf("wire = %q, want %q", io.out.String(), want)
	}
}

func TestTransmitterRecvRequest(t *testing.T) {
	wire := "GET /y HTTP/1.1\r\nHost: example.com\r\nContent-Length: 2\r\n\r\nhi"
	io := newMemTransportIO(wire)
	tr := NewTransmitter(io)

	req, err := tr.RecvRequest()
	if err != nil {
		t.Fatalf("RecvRequest: %v", err)
	}
	if req.Method != MethodGet || req.Target != "/y" {
		t.Fatalf("got method=%q target=%q", req.Method, req.Target)
	}
	data, err := DrainBody(req.Body)
	if err != nil || string(data) != "hi" {
		t.Fatalf("DrainBody() = %q,%v, want hi,nil", data, err)
	}
}

func TestTransmitterRecvResponseChunked(t *testing.T) {
	wire := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n"
	io := newMemTransportIO(wire)
	tr := NewTransmitter(io)

	resp, err := tr.RecvResponse()
	if err != nil {
		t.Fatalf("RecvResponse: %v", err)
	}
	if resp.Code != StatusOK {
		t.Fatalf("Code = %d, want 200", resp.Code)
	}
	data, err := DrainBody(resp.Body)
	if err != nil || string(data) != "hello" {
		t.Fatalf("DrainBody() = %q,%v, want hello,nil", data, err)
	}
}

func TestTransmitterRecvRequestMalformedRequestLine(t *testing.T) {
	wire := "GET\r\nHost: example.com\r\n\r\n"
	io := newMemTransportIO(wire)
	tr := NewTransmitter(io)
	if _, err := tr.RecvRequest(); err == nil {
		t.Fatal("a request line missing the target should be rejected")
	}
}
