package logger

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Type alias for slog.Level for easier usage
type Level = slog.Level

const (
	LevelDebug   = slog.LevelDebug // -4
	LevelInfo    = slog.LevelInfo  // 0
	LevelWarning = slog.LevelWarn  // 4
	LevelError   = slog.LevelError // 8
	LevelFatal   = slog.Level(12)  // 12
)

var (
	Logger          *slog.Logger
	errorSampleRate int32 = 1 // Log every error by default (configurable via ERROR_SAMPLE_RATE)
	programLevel          = new(slog.LevelVar)
	shutdownFunc    func(context.Context) error // Shutdown function for OTEL (nil if not using OTEL)
)

// Error counters surfaced by the metrics endpoint (incremented regardless of sampling)
var (
	TotalErrors    atomic.Int64
	TotalWarnings  atomic.Int64
	Total5xxErrors atomic.Int64
	Total4xxErrors atomic.Int64
	Total400Errors atomic.Int64
	Total404Errors atomic.Int64
)

func init() {
	programLevel.Set(slog.LevelInfo)

	// Get log level from environment variable (default: INFO)
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		levelStr = "INFO"
	}

	level, err := ParseLevel(levelStr)
	if err != nil {
		level = slog.LevelInfo
	}
	programLevel.Set(level)

	// Get error sample rate (default: 1 = log everything)
	// Set ERROR_SAMPLE_RATE=100 to log 1% of errors/warnings
	if sampleStr := os.Getenv("ERROR_SAMPLE_RATE"); sampleStr != "" {
		if rate, err := strconv.Atoi(sampleStr); err == nil && rate > 0 {
			atomic.StoreInt32(&errorSampleRate, int32(rate))
		}
	}

	// Check if OpenTelemetry is enabled
	otelEnabled := strings.ToLower(os.Getenv("OTEL_ENABLED")) == "true"

	if otelEnabled {
		serviceName := os.Getenv("OTEL_SERVICE_NAME")
		if serviceName == "" {
			serviceName = "schedules"
		}

		shutdown, err := setupOTELLogging(context.Background(), serviceName)
		if err != nil {
			// Fall back to JSON handler if OTEL setup fails
			fmt.Fprintf(os.Stderr, "Failed to setup OTEL logging, falling back to JSON: %v\n", err)
			setupJSONLogging()
		} else {
			shutdownFunc = shutdown
		}
	} else {
		setupJSONLogging()
	}
}

// setupJSONLogging configures standard JSON logging to stdout
func setupJSONLogging() {
	opts := &slog.HandlerOptions{
		Level: programLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// setupOTELLogging configures OpenTelemetry logging
func setupOTELLogging(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	// Resource = service identity
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// OTLP log exporter (gRPC)
	exporter, err := otlploggrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	// Log processor (batching is recommended)
	processor := sdklog.NewBatchProcessor(exporter)

	// LoggerProvider
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(processor),
	)

	// Bridge slog → OTel
	otelHandler := otelslog.NewHandler(
		serviceName,
		otelslog.WithLoggerProvider(loggerProvider),
	)

	// Wrap with level filtering
	handler := &levelHandler{
		level:   programLevel,
		handler: otelHandler,
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)

	// Return shutdown hook
	return loggerProvider.Shutdown, nil
}

// levelHandler wraps a handler to filter by level
type levelHandler struct {
	level   slog.Leveler
	handler slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.handler.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, handler: h.handler.WithGroup(name)}
}

// Shutdown gracefully shuts down the logger (only needed when using OTEL)
// Call this during application shutdown
func Shutdown(ctx context.Context) error {
	if shutdownFunc != nil {
		return shutdownFunc(ctx)
	}
	return nil
}

// SetLevel sets the minimum log level for the logger
func SetLevel(level slog.Level) {
	programLevel.Set(level)
}

// ParseLevel converts a string level name to slog.Level
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s (defaulting to INFO)", levelStr)
	}
}

// shouldSample returns true if we should log this message
// Uses sampling to reduce log volume (1 out of every N messages)
func shouldSample() bool {
	rate := atomic.LoadInt32(&errorSampleRate)
	if rate <= 1 {
		return true
	}
	return rand.Intn(int(rate)) == 0
}

// Debug logs a debug-level message (never sampled)
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info logs an info-level message (never sampled)
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning-level message WITH SAMPLING
// The metrics counter is always incremented, but log output is sampled
func Warn(msg string, args ...any) {
	TotalWarnings.Add(1)
	if shouldSample() {
		Logger.Warn(msg, args...)
	}
}

// Error logs an error-level message WITH SAMPLING
// The metrics counter is always incremented, but log output is sampled
func Error(msg string, args ...any) {
	TotalErrors.Add(1)
	if shouldSample() {
		Logger.Error(msg, args...)
	}
}

// Fatal logs a fatal-level message and exits (never sampled)
func Fatal(msg string, args ...any) {
	slog.Log(context.Background(), LevelFatal, msg, args...)
	if shutdownFunc != nil {
		_ = shutdownFunc(context.Background())
	}
	os.Exit(1)
}

// ErrorHttp5xx increments the HTTP 5xx counters
// Counters are always incremented regardless of sampling
func ErrorHttp5xx() {
	Total5xxErrors.Add(1)
	TotalErrors.Add(1)
}

// WarnHttp4xx increments the HTTP 4xx counters
// Counters are always incremented regardless of sampling
func WarnHttp4xx(status int) {
	Total4xxErrors.Add(1)
	TotalWarnings.Add(1)

	switch status {
	case 400:
		Total400Errors.Add(1)
	case 404:
		Total404Errors.Add(1)
	}
}
