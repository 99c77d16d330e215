// Package logging configures the process-wide slog logger. Records are
// encoded by zap through the zapr logr sink, and OpenTelemetry trace and
// span identifiers are attached when the context carries a span.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the zap encoder
type Format string

const (
	// FormatJSON writes one JSON object per record
	FormatJSON Format = "json"
	// FormatConsole writes human readable lines
	FormatConsole Format = "console"
)

// Option configures NewHandler
type Option func(*handlerConfig)

type handlerConfig struct {
	level  slog.Level
	format Format
	writer io.Writer
}

// WithLevel sets the minimum level
func WithLevel(level slog.Level) Option {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithFormat sets the output encoding
func WithFormat(format Format) Option {
	return func(c *handlerConfig) {
		c.format = format
	}
}

// WithWriter sets the destination. Defaults to stderr so stdout stays
// clean for command output.
func WithWriter(w io.Writer) Option {
	return func(c *handlerConfig) {
		c.writer = w
	}
}

// NewHandler creates a zap-backed slog handler
func NewHandler(opts ...Option) slog.Handler {
	cfg := &handlerConfig{
		level:  slog.LevelInfo,
		format: FormatJSON,
		writer: os.Stderr,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeDuration = zapcore.StringDurationEncoder

	var encoder zapcore.Encoder
	if cfg.format == FormatConsole {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(cfg.writer), zap.NewAtomicLevelAt(zapLevel(cfg.level)))
	sink := logr.ToSlogHandler(zapr.NewLogger(zap.New(core)))

	return &traceHandler{Handler: sink, level: cfg.level}
}

// Setup installs a handler as the slog default and returns the logger
func Setup(opts ...Option) *slog.Logger {
	logger := slog.New(NewHandler(opts...))
	slog.SetDefault(logger)
	return logger
}

// zapLevel maps slog levels onto zap. Levels below info keep their numeric
// value so zapr forwards slog debug records unchanged.
func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.Level(level)
	}
}

// ParseLevel converts a level name to a slog.Level
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// LevelFromEnv reads <prefix>_LOG_LEVEL, falling back to LOG_LEVEL.
// Defaults to info if neither is set or if the value is invalid.
func LevelFromEnv(prefix string) slog.Level {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	level, ok := ParseLevel(levelStr)
	if !ok {
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
	}
	return level
}

// traceHandler wraps an slog.Handler to automatically inject OpenTelemetry
// trace_id and span_id into every log record, enabling log-trace correlation.
type traceHandler struct {
	slog.Handler
	level slog.Level
}

// Enabled filters on the slog level. The logr bridge collapses warnings
// onto info verbosity, so its own check is bypassed.
func (h *traceHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}
