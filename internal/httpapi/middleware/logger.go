package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/baserisk/scanguard/internal/obslog"
)

// Logger logs one line per request, enriching the request context with the
// scan id from the route (if any) so every log line the handler and pipeline
// emit while serving this request carries it too.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}

		scanID := c.Param("id")
		if scanID != "" {
			ctx := obslog.With(c.Request.Context(), obslog.Fields{ScanID: obslog.Ptr(scanID)})
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		ctx := c.Request.Context()

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if scanID != "" {
			attrs = append(attrs, "scan_id", scanID)
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			slog.ErrorContext(ctx, "request failed", attrs...)
		case status >= 400:
			slog.WarnContext(ctx, "request error", attrs...)
		default:
			slog.InfoContext(ctx, "request", attrs...)
		}
	}
}
