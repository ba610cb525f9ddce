package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID  = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestID propagates a correlation id: an inbound X-Request-ID from an
// upstream proxy is honoured, otherwise one is minted. The id lands in the
// request context, where the logger middleware picks it up, and is echoed
// on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Set(ContextRequestID, rid)
		c.Writer.Header().Set(headerRequestID, rid)
		c.Next()
	}
}
