package shttp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/panjf2000/gnet/v2"

	"github.com/wma1729/snf-http/internal/httpparser"
	"github.com/wma1729/snf-http/internal/pool"
)

// noopLogger silences gnet's own logging; the server reports through the
// log package instead.
type noopLogger struct{}

func (l *noopLogger) Debugf(format string, args ...interface{}) {}
func (l *noopLogger) Infof(format string, args ...interface{})  {}
func (l *noopLogger) Warnf(format string, args ...interface{})  {}
func (l *noopLogger) Errorf(format string, args ...interface{}) {}
func (l *noopLogger) Fatalf(format string, args ...interface{}) {}

// defaultErrorHandler renders c.Err() as a plain-text body, using the
// status AsHttpError derives for it (an explicit HttpError's own code, an
// engine *Error's Kind-mapped status, or 500 for anything else).
func defaultErrorHandler(c *Ctx) {
	httpErr := AsHttpError(c.Err())
	if httpErr == nil {
		return
	}
	c.Status(httpErr.Code)
	c.String(httpErr.Error())
}

// Server binds a Router to a gnet/v2 reactor, grounded on the teacher's
// own Server/httpServer split. Handler execution is dispatched onto an
// ants/v2 worker pool so the reactor's event-loop goroutines never block
// on application code.
type Server struct {
	router   *Router
	root     *Group
	notFound Handler
	config   Config

	pool *ants.Pool

	addr string
	eng  gnet.Engine
}

// New creates a Server with the given configuration, defaulting to
// DefaultConfig() when none is supplied.
func New(config ...Config) *Server {
	cfg := DefaultConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	r := NewRouter()
	return &Server{
		router: r,
		root:   r.Group(""),
		config: cfg,
	}
}

// Router exposes the underlying Router for advanced registration.
func (s *Server) Router() *Router {
	return s.router
}

func (s *Server) GET(pattern string, h Handler) *Server     { s.root.GET(pattern, h); return s }
func (s *Server) HEAD(pattern string, h Handler) *Server    { s.root.HEAD(pattern, h); return s }
func (s *Server) POST(pattern string, h Handler) *Server    { s.root.POST(pattern, h); return s }
func (s *Server) PUT(pattern string, h Handler) *Server     { s.root.PUT(pattern, h); return s }
func (s *Server) DELETE(pattern string, h Handler) *Server  { s.root.DELETE(pattern, h); return s }
func (s *Server) CONNECT(pattern string, h Handler) *Server { s.root.CONNECT(pattern, h); return s }
func (s *Server) OPTIONS(pattern string, h Handler) *Server { s.root.OPTIONS(pattern, h); return s }
func (s *Server) TRACE(pattern string, h Handler) *Server   { s.root.TRACE(pattern, h); return s }

// Use appends middleware run before every handler registered from this
// point on.
func (s *Server) Use(mw ...MiddlewareFunc) *Server {
	s.root.Use(mw...)
	return s
}

// NotFound sets the handler invoked when no route matches a request's
// path. The router's own method-not-implemented errors still go through
// the configured ErrorHandler.
func (s *Server) NotFound(handler Handler) {
	s.notFound = handler
}

// Group creates a route group rooted at prefix.
func (s *Server) Group(prefix string) *Group {
	return s.router.Group(prefix)
}

// statusForError maps an engine error to the HTTP status code it should
// surface as, grounded on spec.md §7's error-to-status table.
func statusForError(err error) int {
	if he := AsHttpError(err); he != nil {
		return he.Code
	}
	return StatusInternalServerError
}

// dispatch runs req through the router and its matched handler (or the
// not-found/error handler), returning the rendered Response.
func (s *Server) dispatch(req *Request) (resp *Response, err error) {
	c := getContext(req)
	defer c.release()

	handler, rerr := s.router.Handle(req)
	if rerr != nil {
		var e *Error
		if errors.As(rerr, &e) && e.Kind == ErrNotFound && s.notFound != nil {
			s.notFound(c)
		} else {
			c.Status(statusForError(rerr))
			c.Error(rerr)
			if s.config.ErrorHandler != nil {
				s.config.ErrorHandler(c)
			}
		}
		return c.response()
	}

	func() {
		defer func() {
			if p := recover(); p != nil {
				c.Status(StatusInternalServerError)
				c.Error(fmt.Errorf("panic in handler: %v", p))
			}
		}()
		handler(c)
	}()

	if c.Err() != nil && c.StatusCode() == StatusOK {
		c.Status(StatusInternalServerError)
	}
	if c.Err() != nil && s.config.ErrorHandler != nil {
		s.config.ErrorHandler(c)
	}
	return c.response()
}

// handlerResult carries a pooled handler run's outcome back to its caller.
type handlerResult struct {
	resp *Response
	err  error
}

// runOnPool submits req's dispatch to the ants worker pool, blocking the
// caller (an event-loop goroutine) until it completes. If the pool is
// saturated or absent, it runs inline rather than dropping the request.
func (s *Server) runOnPool(req *Request) (*Response, error) {
	if s.pool == nil {
		return s.dispatch(req)
	}
	done := make(chan handlerResult, 1)
	submitErr := s.pool.Submit(func() {
		resp, err := s.dispatch(req)
		done <- handlerResult{resp, err}
	})
	if submitErr != nil {
		return s.dispatch(req)
	}
	r := <-done
	return r.resp, r.err
}

// memIO adapts an in-memory byte slice to IOProvider so the Transmitter's
// head parser can run over a connection's already-buffered bytes.
type memIO struct {
	*bytes.Reader
}

func (memIO) Write(p []byte) (int, error)   { return 0, errors.New("memIO: not writable") }
func (memIO) SetDeadline(t time.Time) error { return nil }

// parseHead parses a request-line+headers block (head, terminated by the
// blank line) and attaches body as the message body: a decoded
// length-delimited buffer, or raw chunked wire bytes to be re-scanned by
// NewNetworkChunkedBody.
func parseHead(head []byte, body []byte) (*Request, error) {
	t := &Transmitter{io: memIO{bytes.NewReader(head)}, r: bufio.NewReader(bytes.NewReader(head))}
	startLine, headers, err := t.readHead()
	if err != nil {
		return nil, err
	}

	b := NewRequestBuilder()
	b.RequestLine(startLine)
	b.headers = headers

	switch {
	case headers.IsChunked():
		b.Body(NewNetworkChunkedBody(bufio.NewReader(bytes.NewReader(body))))
	case body != nil:
		b.Body(NewBufferBody(body))
	}

	return b.Build()
}

// responseBufPool pools the byte slices writeResponse assembles the wire
// response in, one per connection write instead of one bytes.Buffer
// allocation per response.
var responseBufPool = pool.NewBuffer(4096, func(size int) []byte {
	return make([]byte, 0, size)
})

// byteSliceWriter adapts a *[]byte to the stringWriter interface
// Headers.Write wants, so writeResponse can serialize headers straight into
// its pooled buffer without an intermediate bytes.Buffer.
type byteSliceWriter struct{ buf *[]byte }

func (w byteSliceWriter) WriteString(s string) (int, error) {
	*w.buf = append(*w.buf, s...)
	return len(s), nil
}

// writeResponse renders resp into a pooled buffer and writes it to c.
func writeResponse(c gnet.Conn, resp *Response) {
	buf := responseBufPool.GetWithSize(4096)
	buf = append(buf, resp.Version.String()...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(resp.Code), 10)
	buf = append(buf, ' ')
	buf = append(buf, resp.Reason...)
	buf = append(buf, "\r\n"...)
	_ = resp.Headers.Write(byteSliceWriter{&buf})
	buf = append(buf, "\r\n"...)
	if resp.Body != nil {
		if data, err := DrainBody(resp.Body); err == nil {
			buf = append(buf, data...)
		}
	}
	_, _ = c.Write(buf)
	responseBufPool.Put(buf)
}

// reactor implements gnet's event handlers, delegating request handling
// to the bound Server.
type reactor struct {
	gnet.BuiltinEventEngine
	server *Server
}

func (re *reactor) OnBoot(eng gnet.Engine) gnet.Action {
	re.server.eng = eng
	return gnet.None
}

func (re *reactor) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	c.SetContext(httpparser.NewCodec())
	return nil, gnet.None
}

func (re *reactor) OnClose(c gnet.Conn, err error) gnet.Action {
	if codec, ok := c.Context().(*httpparser.Codec); ok && codec != nil {
		httpparser.ReleaseCodec(codec)
	}
	return gnet.None
}

func (re *reactor) OnTraffic(c gnet.Conn) gnet.Action {
	codec := c.Context().(*httpparser.Codec)
	buf, _ := c.Peek(-1)
	n := len(buf)
	processed := 0

	for processed < n {
		consumed, body, err := codec.Parse(buf[processed:])
		codec.ResetParser()

		if err == httpparser.ErrIncompleteBody {
			break
		}
		if err != nil {
			resp, _ := NewResponseBuilder().Status(StatusBadRequest).Build()
			writeResponse(c, resp)
			c.Discard(n)
			return gnet.Close
		}
		if consumed == 0 {
			break
		}

		var headEnd int
		if idx := bytes.Index(buf[processed:], crlf); idx >= 0 {
			headEnd = idx + len(crlf)
		} else {
			headEnd = consumed
		}

		req, perr := parseHead(buf[processed:processed+headEnd], body)
		if perr != nil {
			resp, _ := NewResponseBuilder().Status(statusForError(perr)).Build()
			writeResponse(c, resp)
			processed += consumed
			continue
		}
		req.RemoteAddr = c.RemoteAddr().String()

		resp, _ := re.server.runOnPool(req)
		if resp != nil {
			writeResponse(c, resp)
		}
		processed += consumed
	}

	c.Discard(processed)
	return gnet.None
}

// Listen starts the server on addr (host:port, defaulting to :3000),
// blocking until Shutdown is called or a fatal error occurs.
func (s *Server) Listen(addr string) error {
	if addr == "" {
		addr = ":3000"
	}
	s.addr = "tcp://" + addr

	pool, err := ants.NewPool(s.config.WorkerPoolSize)
	if err != nil {
		return fmt.Errorf("shttp: create worker pool: %w", err)
	}
	s.pool = pool
	defer s.pool.Release()

	initLogger(s.config.LogLevel)
	if !s.config.DisableStartupMessage {
		displayStartupMessage(addr, s.config)
	}

	re := &reactor{server: s}
	return gnet.Run(
		re,
		s.addr,
		gnet.WithMulticore(true),
		gnet.WithReuseAddr(true),
		gnet.WithReusePort(true),
		gnet.WithLogger(&noopLogger{}),
		gnet.WithTCPNoDelay(gnet.TCPNoDelay),
		gnet.WithTCPKeepAlive(s.config.IdleTimeout),
	)
}

// Shutdown stops the server's reactor engine gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.eng.Stop(ctx)
}
