package shttp

import (
	"os"

	"github.com/wma1729/snf-http/log"
)

var (
	// logger is the global logger instance used for startup and lifecycle
	// messages; request-scoped logging goes through middleware/accesslog.
	logger *log.Logger
)

// initLogger initializes the logger with the given log level.
func initLogger(level log.Level) {
	console := log.DefaultConsoleWriter()
	console.Out = os.Stdout

	logger = log.New(console, log.InfoLevel)

	switch level {
	case log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel:
		logger.SetLevel(level)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	// Set the default logger
	log.SetOutput(console)
	log.SetLevel(logger.GetLevel())
}

// displayStartupMessage logs the address the reactor is about to bind and
// the Config values governing how it will behave, so an operator watching
// the console can see the effective timeouts and pool size without going
// back to the code that built the Server.
func displayStartupMessage(addr string, cfg Config) {
	logger.Info().Str("addr", addr).Int("workerPoolSize", cfg.WorkerPoolSize).Msg("snf-http reactor starting")
	logger.Info().
		Dur("readTimeout", cfg.ReadTimeout).
		Dur("writeTimeout", cfg.WriteTimeout).
		Dur("idleTimeout", cfg.IdleTimeout).
		Msg("timeouts configured")
	if cfg.ErrorHandler == nil {
		logger.Warn().Msg("no ErrorHandler configured, using engine default")
	}
}
