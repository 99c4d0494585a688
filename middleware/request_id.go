package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/svanhaverbeke/offerbuilder/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with an ID so the log lines of one offer
// generation can be correlated. A caller-supplied X-Request-ID is honoured,
// otherwise a fresh UUID is issued. The ID is echoed in the response header
// and placed in the request context for the logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Header(requestIDHeader, id)
		c.Set("request_id", id)

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID returns the ID set by RequestID, or "" outside the chain.
func GetRequestID(c *gin.Context) string {
	if id, ok := c.Get("request_id"); ok {
		return id.(string)
	}
	return ""
}
