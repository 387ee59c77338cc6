package accesslog

import (
	"os"
	"strconv"
	"strings"
	"time"

	shttp "github.com/wma1729/snf-http"
	"github.com/wma1729/snf-http/log"
)

// Config represents the configuration for the AccessLog middleware.
type Config struct {
	// Format is the format string for the access log.
	// Available placeholders:
	// - ${remote_ip} - the client's IP address
	// - ${method} - the HTTP method
	// - ${path} - the request path
	// - ${status} - the HTTP status code
	// - ${latency} - the request latency
	// - ${latency_human} - the request latency in human-readable format
	// - ${bytes_in} - the number of bytes received
	// - ${user_agent} - the User-Agent header
	// - ${referer} - the Referer header
	// - ${time} - the current time in the format "2006-01-02 15:04:05"
	// - ${query} - the URL query string
	// - ${error} - the error message if an error occurred during request processing
	Format string
}

// DefaultConfig returns the default configuration for the AccessLog middleware.
func DefaultConfig() Config {
	return Config{
		Format: "${time} | ${status} | ${latency_human} | ${method} ${path} | ${error}",
	}
}

// New returns a middleware that logs HTTP requests.
// If no config is provided, it uses the default config.
// If multiple configs are provided, only the first one is used.
func New(config ...Config) shttp.MiddlewareFunc {
	cfg := DefaultConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *shttp.Ctx) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		method := c.Request.Method
		path := c.Request.Path()
		status := c.StatusCode()
		ip := c.IP()
		bytesIn, _, _ := c.Request.Headers.ContentLength()
		userAgent := c.Get("User-Agent")
		referer := c.Get("Referer")
		query := ""
		if c.Request.URI != nil {
			query = c.Request.URI.Query
		}

		msg := cfg.Format
		msg = replaceTag(msg, "${remote_ip}", ip)
		msg = replaceTag(msg, "${method}", string(method))
		msg = replaceTag(msg, "${path}", path)
		msg = replaceTag(msg, "${status}", intToString(status))
		msg = replaceTag(msg, "${latency}", latency.String())
		msg = replaceTag(msg, "${latency_human}", formatLatency(latency))
		msg = replaceTag(msg, "${bytes_in}", int64ToString(bytesIn))
		msg = replaceTag(msg, "${user_agent}", userAgent)
		msg = replaceTag(msg, "${referer}", referer)
		msg = replaceTag(msg, "${time}", time.Now().Format("2006-01-02 15:04:05"))
		msg = replaceTag(msg, "${query}", query)

		err := c.Err()
		if err != nil {
			msg = replaceTag(msg, "${error}", "error: "+err.Error())
		} else {
			msg = replaceTag(msg, "${error}", "")
		}

		var event log.IEvent
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		event = event.Str("method", string(method)).Str("path", path).Int("status", status).Dur("latency", latency)
		if err != nil {
			event = event.Err(err)
		}
		event.Msg(msg)
	}
}

// logger is the package's own logger; init replaces it with the
// process-wide logger whenever log.GetLogger returns a *log.Logger.
var logger *log.Logger

func init() {
	console := log.DefaultConsoleWriter()
	console.Out = os.Stdout
	console.NoColor = false

	logger = log.New(console, log.InfoLevel)

	if globalLogger := log.GetLogger(); globalLogger != nil {
		if loggerImpl, ok := globalLogger.(*log.Logger); ok {
			logger = loggerImpl
		}
	}
}

func replaceTag(msg, tag, value string) string {
	return strings.Replace(msg, tag, value, -1)
}

func intToString(n int) string {
	return strconv.Itoa(n)
}

func int64ToString(n int64) string {
	return strconv.FormatInt(n, 10)
}

// formatLatency formats a duration in a human-readable way with appropriate units (ns, µs, ms, s)
func formatLatency(d time.Duration) string {
	if d < time.Microsecond {
		return strconv.FormatInt(d.Nanoseconds(), 10) + "ns"
	}
	if d < time.Millisecond {
		return strconv.FormatFloat(float64(d.Nanoseconds())/float64(time.Microsecond), 'f', 2, 64) + "µs"
	}
	if d < time.Second {
		return strconv.FormatFloat(float64(d.Nanoseconds())/float64(time.Millisecond), 'f', 2, 64) + "ms"
	}
	return strconv.FormatFloat(float64(d.Nanoseconds())/float64(time.Second), 'f', 2, 64) + "s"
}
