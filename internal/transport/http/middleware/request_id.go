package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stanokariz/peaceverse/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID threads a correlation id through the request context so that
// logger.WithContext picks it up on every downstream log line. A caller-supplied
// X-Request-ID is reused, otherwise a fresh uuid is minted.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
