package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var logLevel = new(slog.LevelVar)

// Configure installs the process-wide slog handler. format is "text" or "json".
func Configure(level, format string) {
	ConfigureWriter(os.Stdout, level, format)
}

func ConfigureWriter(w io.Writer, level, format string) {
	logLevel.Set(ParseLevel(level))

	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// SetLevel changes the level of the installed handler at runtime.
func SetLevel(level slog.Level) {
	logLevel.Set(level)
}

func Level() slog.Level {
	return logLevel.Level()
}

func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
