package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/roomscan/backend/pkg/logger"
)

// RequestIDHeader carries the request id in and out of the service
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds inbound ids; anything longer is replaced so a
// client cannot inject arbitrary payloads into every log line
const maxRequestIDLength = 64

// RequestID middleware tags each request with a unique id, honoring a
// well-formed inbound header so ids correlate across the upload/status cycle
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}

		// Echo the id so polling clients can correlate responses
		c.Header(RequestIDHeader, requestID)

		// Store in gin context
		c.Set("request_id", requestID)

		// Add to request context for the logger
		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID gets the request ID from gin context
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		return requestID.(string)
	}
	return ""
}
