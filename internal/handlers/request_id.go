package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"voicechat-service/internal/telemetry"
)

const requestIDContextKey = "request_id"

// RequestID assigns every request an id, echoes it in X-Request-ID and
// attaches it to the request context for audit records.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := requestIDFromContext(c)
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(telemetry.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}
