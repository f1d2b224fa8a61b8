package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupParams configures the process logger.
type SetupParams struct {
	// LogFile is the rotating log file; ".log" is appended when missing.
	// Empty means stdout only.
	LogFile     string
	LogToStdout bool
	LogLevel    string
	JSON        bool
}

// CombinedWriter writes every record to all writers, continuing past failures.
type CombinedWriter struct {
	Writers []io.Writer
}

// NewCombinedWriter returns a writer fanning out to writers.
func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{Writers: writers}
}

// Write implements io.Writer. n counts bytes written across all writers; err
// combines every writer's failure.
func (cw *CombinedWriter) Write(p []byte) (n int, err error) {
	for _, w := range cw.Writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		n += written
	}
	return n, err
}

// Setup installs the default slog logger and returns a closer for the log file.
// PRE: none
// POST: slog.Default writes to stdout, the rotating file, or both
func Setup(params SetupParams) (*slog.Logger, io.Closer) {
	out, closer := output(params)
	opts := &slog.HandlerOptions{Level: ParseLevel(params.LogLevel)}

	var handler slog.Handler
	if params.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func output(params SetupParams) (io.Writer, io.Closer) {
	if params.LogFile == "" {
		return os.Stdout, nopCloser{}
	}
	name := params.LogFile
	if !strings.HasSuffix(name, ".log") {
		name += ".log"
	}
	file := &lumberjack.Logger{
		Filename:   name,
		MaxSize:    50, // megabytes
		MaxBackups: 10,
		Compress:   true,
	}
	if params.LogToStdout {
		return NewCombinedWriter(os.Stdout, file), file
	}
	return file, file
}

// ParseLevel maps a config level name to a slog level. Unknown names read as info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
