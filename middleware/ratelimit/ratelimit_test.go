package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	shttp "github.com/wma1729/snf-http"
)

func testRequest(t *testing.T, remoteAddr string) *shttp.Request {
	t.Helper()
	req, err := shttp.NewRequestBuilder().
		Method(shttp.MethodGet).
		Target("/").
		Version(shttp.Version11).
		Build()
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.RemoteAddr = remoteAddr
	return req
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.Requests)
	assert.Equal(t, 5, cfg.Burst)
	assert.Equal(t, time.Minute, cfg.Duration)
}

func TestLimiterAllowsWithinBurst(t *testing.T) {
	l := NewLimiter(Config{Requests: 1, Burst: 3, Duration: time.Minute, ExpiresIn: time.Hour})
	for i := 0; i < 3; i++ {
		assert.True(t, l.allow("10.0.0.1"), "request %d within burst should be allowed", i)
	}
	assert.False(t, l.allow("10.0.0.1"), "request beyond burst should be rejected")
}

func TestLimiterTracksVisitorsSeparately(t *testing.T) {
	l := NewLimiter(Config{Requests: 1, Burst: 1, Duration: time.Minute, ExpiresIn: time.Hour})
	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"), "a different visitor should have its own bucket")
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	mw := New(Config{Requests: 1, Burst: 1, Duration: time.Minute, ExpiresIn: time.Hour})

	handlerCalls := 0
	handler := func(c *shttp.Ctx) { handlerCalls++ }

	req := testRequest(t, "10.0.0.9:5555")
	ctx1 := shttp.Run(req, []shttp.MiddlewareFunc{mw}, handler)
	assert.Equal(t, shttp.StatusOK, ctx1.StatusCode())
	assert.Equal(t, 1, handlerCalls)

	ctx2 := shttp.Run(req, []shttp.MiddlewareFunc{mw}, handler)
	assert.Equal(t, shttp.StatusTooManyRequests, ctx2.StatusCode())
	assert.Equal(t, 1, handlerCalls, "handler must not run once rate limited")
}
