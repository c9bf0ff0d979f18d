package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Gin context keys shared across the middleware chain and the handlers.
const (
	// TraceIDHeader carries the trace id to and from clients.
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey holds the trace id on the gin context.
	TraceIDKey = "trace_id"
	// UserIDKey holds the authenticated user's id, set by RequireAuth.
	UserIDKey = "user_id"
	// RoleKey holds the authenticated user's role, set by RequireAuth.
	RoleKey = "role"
)

// EnrichContext assigns every request a trace id, honouring one supplied by
// the caller, and echoes it back in the response headers.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		c.Next()
	}
}

// GetTraceID returns the request's trace id, or "" outside the middleware chain.
func GetTraceID(c *gin.Context) string {
	if id, ok := c.Get(TraceIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
