package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/duynhne/callerid-service/config"
)

const (
	TraceIDHeader     = "X-Trace-ID"
	TraceParentHeader = "traceparent"

	contextLogger  = "logger"
	contextTraceID = "trace_id"
)

// GetTraceID returns the W3C traceparent trace id, then X-Trace-ID, or a fresh random id
func GetTraceID(c *gin.Context) string {
	// traceparent: version-traceid-parentid-flags
	if parts := strings.Split(c.GetHeader(TraceParentHeader), "-"); len(parts) == 4 && parts[1] != "" {
		return parts[1]
	}
	if traceID := c.GetHeader(TraceIDHeader); traceID != "" {
		return traceID
	}
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// LoggingMiddleware attaches a trace-scoped logger to the request and writes
// one access log line per request: info below 400, warn for 4xx, error for 5xx.
func LoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		traceID := GetTraceID(c)

		c.Set(contextTraceID, traceID)
		c.Set(contextLogger, logger.With(zap.String("trace_id", traceID)))
		c.Header(TraceIDHeader, traceID)

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("trace_id", traceID),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id := AccountID(c); id != 0 {
			fields = append(fields, zap.Int64("account_id", id))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, zap.String("errors", errs.String()))
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case status >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}

// GetLoggerFromGinContext returns the request logger set by LoggingMiddleware,
// or the process-wide logger outside of it
func GetLoggerFromGinContext(c *gin.Context) *zap.Logger {
	if l, ok := c.Get(contextLogger); ok {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.L()
}

// NewLogger builds a zap logger from LOG_LEVEL and LOG_FORMAT.
// "console" selects the development encoder; anything else is JSON.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	if strings.EqualFold(cfg.Format, "console") {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.MessageKey = "message"

	return zcfg.Build()
}
