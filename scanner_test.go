package shttp

import "testing"

func TestScannerGetUngetPeek(t *testing.T) {
	sc := newScanner("ab")
	c, ok := sc.peek()
	if !ok || c != 'a' {
		t.Fatalf("peek() = %c,%v, want a,true", c, ok)
	}
	c, ok = sc.get()
	if !ok || c != 'a' {
		t.Fatalf("get() = %c,%v, want a,true", c, ok)
	}
	sc.unget()
	c, ok = sc.get()
	if !ok || c != 'a' {
		t.Fatalf("get() after unget() = %c,%v, want a,true", c, ok)
	}
	if sc.eof() {
		t.Fatal("eof() true before consuming last byte")
	}
	c, ok = sc.get()
	if !ok || c != 'b' {
		t.Fatalf("get() = %c,%v, want b,true", c, ok)
	}
	if !sc.eof() {
		t.Fatal("eof() false after consuming all bytes")
	}
	if _, ok := sc.get(); ok {
		t.Fatal("get() at eof should fail")
	}
}

func TestScannerReadSpace(t *testing.T) {
	sc := newScanner(" \tx")
	if !sc.readSpace() {
		t.Fatal("readSpace() should consume the leading space")
	}
	sc.readOptSpace()
	c, _ := sc.get()
	if c != 'x' {
		t.Fatalf("expected x after optional space, got %c", c)
	}

	sc2 := newScanner("x")
	if sc2.readSpace() {
		t.Fatal("readSpace() should fail with no leading space")
	}
	c, _ = sc2.get()
	if c != 'x' {
		t.Fatal("readSpace() failure must not consume the byte")
	}
}

func TestScannerReadCRLF(t *testing.T) {
	cases := []string{"\r\n", "\n", "\r", ""}
	for _, s := range cases {
		sc := newScanner(s)
		if !sc.readCRLF() {
			t.Errorf("readCRLF(%q) = false, want true", s)
		}
	}
	sc := newScanner("x")
	if sc.readCRLF() {
		t.Fatal("readCRLF() on non-terminator input should fail")
	}
}

func TestScannerReadToken(t *testing.T) {
	sc := newScanner("GET /x")
	tok, ok := sc.readToken(false)
	if !ok || tok != "GET" {
		t.Fatalf("readToken(false) = %q,%v, want GET,true", tok, ok)
	}

	sc2 := newScanner("Content-Type")
	tok, ok = sc2.readToken(true)
	if !ok || tok != "content-type" {
		t.Fatalf("readToken(true) = %q,%v, want content-type,true", tok, ok)
	}

	sc3 := newScanner("")
	if _, ok := sc3.readToken(false); ok {
		t.Fatal("readToken() on empty input should fail")
	}
}

func TestScannerReadURI(t *testing.T) {
	sc := newScanner("/a/b?c=d HTTP/1.1")
	uri, ok := sc.readURI()
	if !ok || uri != "/a/b?c=d" {
		t.Fatalf("readURI() = %q,%v, want /a/b?c=d,true", uri, ok)
	}
}

func TestScannerReadVersion(t *testing.T) {
	sc := newScanner("HTTP/1.1\r\n")
	v, ok := sc.readVersion()
	if !ok || v != Version11 {
		t.Fatalf("readVersion() = %+v,%v, want Version11,true", v, ok)
	}
}

func TestScannerReadStatus(t *testing.T) {
	sc := newScanner("404 Not Found")
	code, ok := sc.readStatus()
	if !ok || code != 404 {
		t.Fatalf("readStatus() = %d,%v, want 404,true", code, ok)
	}
	sc.readOptSpace()
	reason := sc.readReason()
	if reason != "Not Found" {
		t.Fatalf("readReason() = %q, want %q", reason, "Not Found")
	}

	sc2 := newScanner("4a4")
	if _, ok := sc2.readStatus(); ok {
		t.Fatal("readStatus() on non-digit input should fail")
	}
}

func TestScannerReadQString(t *testing.T) {
	sc := newScanner(`"hello \"world\""`)
	s, ok := sc.readQString()
	if !ok || s != `hello "world"` {
		t.Fatalf("readQString() = %q,%v, want %q,true", s, ok, `hello "world"`)
	}

	sc2 := newScanner(`"unterminated`)
	if _, ok := sc2.readQString(); ok {
		t.Fatal("readQString() on unterminated quote should fail")
	}
}

func TestScannerReadComment(t *testing.T) {
	sc := newScanner(`(a simple comment)`)
	c, ok := sc.readComment()
	if !ok || c != "a simple comment" {
		t.Fatalf("readComment() = %q,%v, want %q,true", c, ok, "a simple comment")
	}

	sc2 := newScanner(`(escaped \) paren)`)
	c2, ok2 := sc2.readComment()
	if !ok2 || c2 != "escaped ) paren" {
		t.Fatalf("readComment() = %q,%v, want %q,true", c2, ok2, "escaped ) paren")
	}
}

func TestScannerReadCommentRejectsNesting(t *testing.T) {
	sc := newScanner(`(outer (inner) text)`)
	if _, ok := sc.readComment(); ok {
		t.Fatal("readComment() on an unescaped nested '(' should fail")
	}
}

func TestScannerReadParameters(t *testing.T) {
	sc := newScanner(`;charset=utf-8;q="0.9"`)
	params, ok := sc.readParameters()
	if !ok {
		t.Fatal("readParameters() failed")
	}
	want := []param{{Name: "charset", Value: "utf-8"}, {Name: "q", Value: "0.9"}}
	if len(params) != len(want) {
		t.Fatalf("got %d params, want %d", len(params), len(want))
	}
	for i, p := range params {
		if p != want[i] {
			t.Errorf("param[%d] = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestScannerReadAll(t *testing.T) {
	sc := newScanner("  trimmed value  \r\nnext line")
	got := sc.readAll()
	if got != "trimmed value" {
		t.Fatalf("readAll() = %q, want %q", got, "trimmed value")
	}
}
