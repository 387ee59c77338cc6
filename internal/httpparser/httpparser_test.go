package httpparser

import "testing"

func TestCodecParseRequestWithoutBody(t *testing.T) {
	hc := NewCodec()
	defer ReleaseCodec(hc)

	req := "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"
	n, body, err := hc.Parse([]byte(req))
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	if n != len(req) {
		t.Errorf("Parse() = %d, want %d", n, len(req))
	}
	if len(body) != 0 {
		t.Errorf("Parse() returned non-empty body for bodyless request: %q", body)
	}
}

func TestCodecParseRequestWithContentLength(t *testing.T) {
	hc := NewCodec()
	defer ReleaseCodec(hc)

	req := "POST / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 11\r\n\r\nHello World"
	n, body, err := hc.Parse([]byte(req))
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	if n != len(req) {
		t.Errorf("Parse() = %d, want %d", n, len(req))
	}
	if string(body) != "Hello World" {
		t.Errorf("Parse() body = %q, want %q", body, "Hello World")
	}
}

func TestCodecParseIncompleteBody(t *testing.T) {
	hc := NewCodec()
	defer ReleaseCodec(hc)

	req := "POST / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 11\r\n\r\nHello"
	_, _, err := hc.Parse([]byte(req))
	if err != ErrIncompleteBody {
		t.Errorf("Parse() error = %v, want %v", err, ErrIncompleteBody)
	}
}

func TestCodecParseChunkedRequest(t *testing.T) {
	hc := NewCodec()
	defer ReleaseCodec(hc)

	req := "POST / HTTP/1.1\r\nHost: example.com\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nHello\r\n0\r\n\r\n"
	n, body, err := hc.Parse([]byte(req))
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	if n != len(req) {
		t.Errorf("Parse() = %d, want %d", n, len(req))
	}
	if string(body) != "5\r\nHello\r\n0\r\n\r\n" {
		t.Errorf("Parse() body = %q, want raw chunked body", body)
	}
}

func TestCodecGetContentLengthAbsent(t *testing.T) {
	hc := NewCodec()
	defer ReleaseCodec(hc)

	if _, _, err := hc.Parse([]byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n")); err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	if n := hc.GetContentLength(); n != -1 {
		t.Errorf("GetContentLength() = %d, want -1", n)
	}
}

func TestCodecGetContentLengthZero(t *testing.T) {
	hc := NewCodec()
	defer ReleaseCodec(hc)

	if _, _, err := hc.Parse([]byte("GET / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 0\r\n\r\n")); err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	if n := hc.GetContentLength(); n != 0 {
		t.Errorf("GetContentLength() = %d, want 0", n)
	}
}

func TestCodecGetContentLengthCached(t *testing.T) {
	hc := NewCodec()
	defer ReleaseCodec(hc)

	if _, _, err := hc.Parse([]byte("POST / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 42\r\n\r\n")); err != nil {
		if err != ErrIncompleteBody {
			t.Fatalf("Parse() returned error: %v", err)
		}
	}
	if n := hc.GetContentLength(); n != 42 {
		t.Errorf("GetContentLength() = %d, want 42", n)
	}
	// Cached until ResetParser clears it.
	if n := hc.GetContentLength(); n != 42 {
		t.Errorf("GetContentLength() second call = %d, want 42 (cached)", n)
	}
	hc.ResetParser()
	if hc.ContentLength != -1 {
		t.Errorf("ResetParser() left ContentLength = %d, want -1", hc.ContentLength)
	}
}

func TestCodecResetClearsBuffer(t *testing.T) {
	hc := NewCodec()
	defer ReleaseCodec(hc)

	hc.Buf = append(hc.Buf, []byte("leftover")...)
	hc.ContentLength = 7
	hc.Reset()

	if len(hc.Buf) != 0 {
		t.Errorf("Reset() left Buf len = %d, want 0", len(hc.Buf))
	}
	if hc.ContentLength != -1 {
		t.Errorf("Reset() left ContentLength = %d, want -1", hc.ContentLength)
	}
	if hc.Parser == nil {
		t.Error("Reset() left Parser nil")
	}
}

func TestCodecReuseAfterReleaseAndNewCodec(t *testing.T) {
	hc := NewCodec()
	hc.ContentLength = 99
	ReleaseCodec(hc)

	hc2 := NewCodec()
	defer ReleaseCodec(hc2)
	if hc2.ContentLength != -1 {
		t.Errorf("NewCodec() after release ContentLength = %d, want -1", hc2.ContentLength)
	}
}
