package shttp

import "testing"

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("HTTP/1.1")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if v != Version11 {
		t.Fatalf("got %+v, want %+v", v, Version11)
	}
}

func TestParseVersionRejectsMissingPrefix(t *testing.T) {
	if _, err := ParseVersion("1.1"); err == nil {
		t.Fatal("a version without the HTTP/ prefix should be rejected")
	}
}

func TestParseVersionRejectsMalformed(t *testing.T) {
	for _, s := range []string{"HTTP/1", "HTTP/a.b", "HTTP/1."} {
		if _, err := ParseVersion(s); err == nil {
			t.Errorf("ParseVersion(%q) should fail", s)
		}
	}
}

func TestVersionString(t *testing.T) {
	if Version11.String() != "HTTP/1.1" {
		t.Fatalf("String() = %q, want HTTP/1.1", Version11.String())
	}
}

func TestVersionSupported(t *testing.T) {
	if !Version10.Supported() || !Version11.Supported() {
		t.Fatal("HTTP/1.0 and HTTP/1.1 must both be supported")
	}
	if (Version{Major: 2, Minor: 0}).Supported() {
		t.Fatal("HTTP/2.0 must not be supported")
	}
	if (Version{Major: 0, Minor: 9}).Supported() {
		t.Fatal("HTTP/0.9 must not be supported")
	}
}
