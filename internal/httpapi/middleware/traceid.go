package middleware

import (
	"github.com/baserisk/scanguard/internal/obslog"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// TraceID echoes the configured trace header (or, when the request has none,
// the active span's trace id) into the response, and when an id is present
// tags the request context with the "scanguard.httpapi" log component. The
// id itself is not added to obslog's context fields, so log lines do not
// carry it.
func TraceID(headerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		id := c.GetHeader(headerName)
		if id == "" {
			if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
				id = span.SpanContext().TraceID().String()
			}
		}

		if id != "" {
			c.Header(headerName, id)
			ctx = obslog.With(ctx, obslog.Fields{Component: "scanguard.httpapi"})
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}
