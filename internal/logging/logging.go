package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config contains structured (slog) logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the path to the debug log file. Empty means no file logging.
	FilePath string
	// WriteToStderr whether to also write to stderr.
	WriteToStderr bool
	// Stderr replaces os.Stderr as the console destination.
	Stderr io.Writer
}

// DefaultConfig logs warnings and errors to stderr only.
func DefaultConfig(stderr io.Writer) Config {
	return Config{
		Level:         "warn",
		WriteToStderr: true,
		Stderr:        stderr,
	}
}

// DebugConfig returns configuration for --debug: everything goes to the
// debug log file and nothing to stderr, so the progress lines stay readable.
func DebugConfig() Config {
	return Config{
		Level:    "debug",
		FilePath: DefaultDebugLogPath(),
	}
}

// Setup builds a JSON slog logger and returns it with a cleanup function
// that closes the debug log file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	var writers []io.Writer
	cleanup := func() {}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, &syncWriter{f: f})
		cleanup = func() {
			_ = f.Sync()
			_ = f.Close()
		}
	}
	if cfg.WriteToStderr {
		if cfg.Stderr != nil {
			writers = append(writers, cfg.Stderr)
		} else {
			writers = append(writers, os.Stderr)
		}
	}

	var output io.Writer
	switch len(writers) {
	case 0:
		output = io.Discard
	case 1:
		output = writers[0]
	default:
		output = io.MultiWriter(writers...)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	return slog.New(handler), cleanup, nil
}

// syncWriter syncs the file after each write so a killed run keeps its trail.
type syncWriter struct {
	f *os.File
}

func (w *syncWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err == nil {
		_ = w.f.Sync()
	}
	return n, err
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
