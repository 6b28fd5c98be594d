// Package log provides structured logging for the wallet.
package log

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jrick/logrotate/rotator"
	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers.
var (
	KeyStore zerolog.Logger
	RPC      zerolog.Logger
	Builder  zerolog.Logger
	Tracker  zerolog.Logger
	Wallet   zerolog.Logger
	API      zerolog.Logger
	DevNode  zerolog.Logger
)

// Rotated log files are rolled at 10 MB, keeping three old rolls.
const (
	rotateThresholdKB = 10 * 1024
	rotateMaxRolls    = 3
)

var logRotator *rotator.Rotator

func init() {
	// Console goes to stderr so the interactive menu owns stdout.
	Logger = NewConsoleLogger(os.Stderr, "info")
	initComponentLoggers()
}

// Init initializes the logger with the given configuration.
// When file is non-empty, logs are written to both the console and a rotating
// file (always JSON for machine parsing).
func Init(level string, jsonOutput bool, file string) error {
	var console io.Writer = os.Stderr
	if !jsonOutput {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	if file != "" {
		if dir := filepath.Dir(file); dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return err
			}
		}
		r, err := rotator.New(file, rotateThresholdKB, false, rotateMaxRolls)
		if err != nil {
			return err
		}
		Close()
		logRotator = r
		console = zerolog.MultiLevelWriter(console, zerolog.SyncWriter(r))
	}

	Logger = zerolog.New(console).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
	initComponentLoggers()
	return nil
}

// Close flushes and closes the rotating log file, if any.
func Close() {
	if logRotator != nil {
		logRotator.Close()
		logRotator = nil
	}
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	return zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// Nop returns a disabled logger for tests and library callers that pass none.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func initComponentLoggers() {
	KeyStore = WithComponent("keystore")
	RPC = WithComponent("rpc")
	Builder = WithComponent("builder")
	Tracker = WithComponent("tracker")
	Wallet = WithComponent("wallet")
	API = WithComponent("api")
	DevNode = WithComponent("devnode")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
