// Package logging builds the zerolog loggers used across carbonledger and
// carries them through context.Context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output destinations.
const (
	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Rotation defaults applied when Config leaves them at zero.
const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

// Config describes how a logger is built.
type Config struct {
	Level  string
	Format string
	Output string
	File   string
	Caller bool

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// LogPathResult is the outcome of NewLoggerWithPath. When the file output
// could not be prepared the logger falls back to stderr and FallbackReason
// says why.
type LogPathResult struct {
	Logger         zerolog.Logger
	FilePath       string
	UsingFile      bool
	FallbackUsed   bool
	FallbackReason string

	closer io.Closer
}

// Close releases the rotating log file, if any.
func (r *LogPathResult) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// NewLogger builds a logger from cfg, discarding path information.
func NewLogger(cfg Config) zerolog.Logger {
	return NewLoggerWithPath(cfg).Logger
}

// NewLoggerWithPath builds a logger from cfg. File output goes through a
// lumberjack rotating writer; if the log directory cannot be created the
// logger writes to stderr instead.
func NewLoggerWithPath(cfg Config) LogPathResult {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var (
		result LogPathResult
		out    io.Writer = os.Stderr
	)

	if cfg.Output == OutputFile && cfg.File != "" {
		if mkErr := os.MkdirAll(filepath.Dir(cfg.File), 0o750); mkErr != nil {
			result.FallbackUsed = true
			result.FallbackReason = fmt.Sprintf("cannot create log directory: %v", mkErr)
		} else {
			rotator := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    orDefault(cfg.MaxSizeMB, defaultMaxSizeMB),
				MaxBackups: orDefault(cfg.MaxBackups, defaultMaxBackups),
				MaxAge:     orDefault(cfg.MaxAgeDays, defaultMaxAgeDays),
				Compress:   true,
			}
			out = rotator
			result.closer = rotator
			result.FilePath = cfg.File
			result.UsingFile = true
		}
	}

	if cfg.Format == FormatConsole && !result.UsingFile {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	result.Logger = ctx.Logger()
	return result
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// ComponentLogger returns a child logger tagged with component.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// FromContext returns the logger stored in ctx. A context without a logger
// yields a disabled logger, so library code can always log.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// PrintLogPathMessage tells the user where logs are being written.
func PrintLogPathMessage(w io.Writer, path string) {
	_, _ = fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning tells the user file logging was unavailable.
func PrintFallbackWarning(w io.Writer, reason string) {
	_, _ = fmt.Fprintf(w, "Warning: file logging unavailable (%s), logging to stderr\n", reason)
}

type traceIDKey struct{}

// GetOrGenerateTraceID returns the trace ID in ctx or a fresh ULID.
func GetOrGenerateTraceID(ctx context.Context) string {
	if id := TraceIDFromContext(ctx); id != "" {
		return id
	}
	return ulid.Make().String()
}

// ContextWithTraceID stores a trace ID in ctx.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext returns the trace ID stored in ctx, or "".
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
