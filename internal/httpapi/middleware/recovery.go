package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery catches a panic anywhere downstream, logs it with the scan id the
// request was operating on (if the route has one), and responds with a
// generic 500 rather than letting gin's own recovery close the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				ctx := c.Request.Context()
				stack := string(debug.Stack())

				attrs := []any{
					"error", err,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", stack,
				}
				if scanID := c.Param("id"); scanID != "" {
					attrs = append(attrs, "scan_id", scanID)
				}

				slog.ErrorContext(ctx, "panic recovered", attrs...)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
