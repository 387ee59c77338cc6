package shttp

import (
	"strings"
	"testing"
)

func TestHeadersAddSetGetDel(t *testing.T) {
	h := NewHeaders()
	h.Set(FieldContentType, "text/plain")
	if v, ok := h.Get("content-type"); !ok || v != "text/plain" {
		t.Fatalf("Get = %q,%v, want text/plain,true", v, ok)
	}
	h.Set(FieldContentType, "application/json")
	if v, _ := h.Get(FieldContentType); v != "application/json" {
		t.Fatalf("Set should replace value, got %q", v)
	}
	if !h.Has(FieldContentType) {
		t.Fatal("Has() should report true")
	}
	h.Del(FieldContentType)
	if h.Has(FieldContentType) {
		t.Fatal("Del() should remove the field")
	}
	if _, ok := h.Get(FieldContentType); ok {
		t.Fatal("Get() after Del() should report absent")
	}
}

func TestHeadersAddJoinsValues(t *testing.T) {
	h := NewHeaders()
	h.Add("X-Custom", "a")
	h.Add("X-Custom", "b")
	v, ok := h.Get("X-Custom")
	if !ok || v != "a, b" {
		t.Fatalf("Get() = %q,%v, want \"a, b\",true", v, ok)
	}
}

func TestHeadersCanonicalCase(t *testing.T) {
	h := NewHeaders()
	h.Add("content-type", "text/plain")
	var name string
	h.Range(func(n, v string) { name = n })
	if name != "Content-Type" {
		t.Fatalf("canonical name = %q, want Content-Type", name)
	}
}

func TestHeadersOrderPreserved(t *testing.T) {
	h := NewHeaders()
	h.Add("Z-First", "1")
	h.Add("A-Second", "2")
	h.Add("M-Third", "3")
	var order []string
	h.Range(func(n, v string) { order = append(order, n) })
	want := []string{"Z-First", "A-Second", "M-Third"}
	for i, n := range want {
		if order[i] != n {
			t.Fatalf("order[%d] = %q, want %q", i, order[i], n)
		}
	}
}

func TestHeadersClone(t *testing.T) {
	h := NewHeaders()
	h.Add("X-A", "1")
	clone := h.Clone()
	clone.Add("X-B", "2")
	if h.Has("X-B") {
		t.Fatal("Clone() must be independent of the original")
	}
	if !clone.Has("X-A") {
		t.Fatal("Clone() must preserve existing fields")
	}
}

func TestHeadersWrite(t *testing.T) {
	h := NewHeaders()
	h.Add("Host", "example.com")
	h.Add("Connection", "close")
	var b strings.Builder
	if err := h.Write(&b); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "Host: example.com\r\nConnection: close\r\n"
	if b.String() != want {
		t.Fatalf("Write() = %q, want %q", b.String(), want)
	}
}

func TestHeadersAddLine(t *testing.T) {
	h := NewHeaders()
	if err := h.AddLine("Content-Length: 42"); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	v, _ := h.Get(FieldContentLength)
	if v != "42" {
		t.Fatalf("Get() = %q, want 42", v)
	}

	if err := h.AddLine("malformed-no-colon"); err == nil {
		t.Fatal("AddLine() without a colon should fail")
	}
	if err := h.AddLine(": no-name"); err == nil {
		t.Fatal("AddLine() with an empty name should fail")
	}
}

func TestHeadersAddLineValueGrammar(t *testing.T) {
	h := NewHeaders()
	if err := h.AddLine(`X-Quoted: "a value, with stuff" `); err != nil {
		t.Fatalf("AddLine with a quoted value: %v", err)
	}
	if v, _ := h.Get("X-Quoted"); v != `"a value, with stuff"` {
		t.Fatalf("Get() = %q, want the quoted value kept verbatim", v)
	}

	h2 := NewHeaders()
	if err := h2.AddLine(`X-Commented: token(a comment)`); err != nil {
		t.Fatalf("AddLine with a trailing comment: %v", err)
	}
	if v, _ := h2.Get("X-Commented"); v != "token(a comment)" {
		t.Fatalf("Get() = %q, want token(a comment)", v)
	}

	h3 := NewHeaders()
	if err := h3.AddLine("X-Bad: bare,comma"); err == nil {
		t.Fatal("AddLine() should reject a raw byte outside token/quote/comment")
	}
	if err := h3.AddLine(`X-Bad: "unterminated`); err == nil {
		t.Fatal("AddLine() should reject an unterminated quoted span")
	}
	if err := h3.AddLine(`X-Bad: bare\escape`); err == nil {
		t.Fatal("AddLine() should reject a backslash outside a quote or comment")
	}
}

func TestHeadersContentLength(t *testing.T) {
	h := NewHeaders()
	h.Set(FieldContentLength, "123")
	n, ok, err := h.ContentLength()
	if err != nil || !ok || n != 123 {
		t.Fatalf("ContentLength() = %d,%v,%v, want 123,true,nil", n, ok, err)
	}

	h2 := NewHeaders()
	h2.Set(FieldContentLength, "-1")
	if _, _, err := h2.ContentLength(); err == nil {
		t.Fatal("negative Content-Length should be rejected")
	}

	h3 := NewHeaders()
	if _, ok, _ := h3.ContentLength(); ok {
		t.Fatal("absent Content-Length should report ok=false")
	}
}

func TestHeadersIsChunked(t *testing.T) {
	h := NewHeaders()
	h.Set(FieldTransferEncoding, "gzip, chunked")
	if !h.IsChunked() {
		t.Fatal("IsChunked() should be true when chunked is the final coding")
	}

	h2 := NewHeaders()
	h2.Set(FieldTransferEncoding, "chunked, gzip")
	if h2.IsChunked() {
		t.Fatal("IsChunked() should be false when chunked is not the final coding")
	}
}

func TestHeadersValidateFramingRejectsBoth(t *testing.T) {
	h := NewHeaders()
	h.Set(FieldContentLength, "10")
	h.Set(FieldTransferEncoding, "chunked")
	if err := h.ValidateFraming(); err == nil {
		t.Fatal("a message carrying both Content-Length and Transfer-Encoding must be rejected")
	}
}

func TestHeadersHost(t *testing.T) {
	h := NewHeaders()
	h.Set(FieldHost, "example.com:9090")
	hp, ok, err := h.Host()
	if err != nil || !ok || hp.Host != "example.com" || hp.Port != 9090 {
		t.Fatalf("Host() = %+v,%v,%v", hp, ok, err)
	}
}

func TestHeadersConnectionTokens(t *testing.T) {
	h := NewHeaders()
	h.Set(FieldConnection, "keep-alive, Upgrade")
	if !h.HasConnectionToken("upgrade") {
		t.Fatal("HasConnectionToken() should be case-insensitive")
	}
	if h.HasConnectionToken("close") {
		t.Fatal("HasConnectionToken() should not find an absent token")
	}
}

func TestHeadersContentType(t *testing.T) {
	h := NewHeaders()
	h.Set(FieldContentType, "application/json;charset=utf-8")
	mt, ok, err := h.ContentType()
	if err != nil || !ok || mt.Type != "application" || mt.Subtype != "json" {
		t.Fatalf("ContentType() = %+v,%v,%v", mt, ok, err)
	}
}

func TestHeadersDate(t *testing.T) {
	h := NewHeaders()
	h.Set(FieldDate, "Sun, 06 Nov 1994 08:49:37 GMT")
	ts, ok, err := h.Date()
	if err != nil || !ok {
		t.Fatalf("Date() = %v,%v,%v", ts, ok, err)
	}
	if ts.Year() != 1994 {
		t.Fatalf("year = %d, want 1994", ts.Year())
	}
}

func TestHeadersVia(t *testing.T) {
	h := NewHeaders()
	h.Set(FieldVia, "HTTP/1.1 proxy1, HTTP/1.0 proxy2 (Squid)")
	vias, ok, err := h.Via()
	if err != nil || !ok || len(vias) != 2 {
		t.Fatalf("Via() = %+v,%v,%v", vias, ok, err)
	}
	if vias[0].Host != "proxy1" || vias[1].Host != "proxy2" {
		t.Fatalf("got %+v", vias)
	}
}
