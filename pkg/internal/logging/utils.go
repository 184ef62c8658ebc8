package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bsv-blockchain/go-signed-exchange/pkg/defs"
)

const (
	ServiceKey = "service"
	ErrorKey   = "error"
)

// New creates a logger writing to w with the configured level and handler type.
func New(level defs.LogLevel, handler defs.LogHandler, w io.Writer) (*slog.Logger, error) {
	slogLevel, err := SlogLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: slogLevel}
	switch handler {
	case defs.JSONHandler:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case defs.TextHandler:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unsupported log handler %q", handler)
	}
}

// SlogLevel converts a configured log level to its slog counterpart.
func SlogLevel(level defs.LogLevel) (slog.Level, error) {
	switch level {
	case defs.LogLevelDebug:
		return slog.LevelDebug, nil
	case defs.LogLevelInfo:
		return slog.LevelInfo, nil
	case defs.LogLevelWarn:
		return slog.LevelWarn, nil
	case defs.LogLevelError:
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level %q", level)
	}
}

// Child returns a new logger with the given service name added to the logger attrs.
func Child(logger *slog.Logger, serviceName string) *slog.Logger {
	return DefaultIfNil(logger).With(
		slog.String(ServiceKey, serviceName),
	)
}

func Error(err error) slog.Attr {
	return slog.String(ErrorKey, err.Error())
}

// Fatalf logs the error and exits the program.
func Fatalf(logger *slog.Logger, err error, format string, args ...any) {
	DefaultIfNil(logger).Error("Fatal error: "+fmt.Sprintf(format, args...), Error(err))
	os.Exit(1)
}

// DefaultIfNil returns the default logger if the given logger is nil.
func DefaultIfNil(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
