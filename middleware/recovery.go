package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500 response. The document pipeline
// recovers locally from malformed pricing tables and signature blocks, so
// anything reaching this point is a genuine bug; it is logged with the same
// field shape as RequestLogger plus the stack trace.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestID := GetRequestID(c)

				attrs := []any{
					"error", r,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"request_id", requestID,
				}
				if username := GetUsername(c); username != "" {
					attrs = append(attrs, "username", username)
				}
				attrs = append(attrs, "stack", string(debug.Stack()))
				slog.Error("panic recovered", attrs...)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "Internal server error",
					"request_id": requestID,
				})
			}
		}()

		c.Next()
	}
}
