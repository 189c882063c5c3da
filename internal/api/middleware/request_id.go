package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fieldops.io/fieldops/internal/domain"
	"fieldops.io/fieldops/internal/pkg/logger"
)

type contextKey string

const (
	// RequestIDHeader is the HTTP header for request tracing.
	RequestIDHeader = "X-Request-ID"

	ctxKeyRequestID contextKey = "request_id"
	ctxKeyActor     contextKey = "actor"
)

// RequestID injects a unique request ID into the context and response header.
// A caller-supplied header is kept so traces can span the dashboard and the API.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			id, _ := uuid.NewV7()
			rid = id.String()
		}
		c.Set(string(ctxKeyRequestID), rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), ctxKeyRequestID, rid),
		)
		c.Next()
	}
}

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// RequestLogger returns the global logger tagged with the request id and,
// once JWTAuth has run, the acting technician or dispatcher.
func RequestLogger(ctx context.Context) *zap.Logger {
	fields := make([]zap.Field, 0, 2)
	if rid := GetRequestID(ctx); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if actor, ok := ctx.Value(ctxKeyActor).(domain.ActorContext); ok {
		fields = append(fields, zap.String("actor", actor.Label()))
	}
	return logger.With(fields...)
}

// AccessLog logs one line per request after the handler chain finishes.
// Health and scrape paths log at debug so they do not drown the feed.
func AccessLog(quiet ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(quiet))
	for _, p := range quiet {
		skip[p] = true
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := RequestLogger(c.Request.Context())
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if skip[c.FullPath()] {
			log.Debug("request", fields...)
			return
		}
		log.Info("request", fields...)
	}
}
