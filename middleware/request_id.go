package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is the header carrying the request correlation id.
const HeaderRequestID = "X-Request-ID"

// ContextRequestIDKey stores the request id inside Gin context for log lines.
const ContextRequestIDKey = "request_id"

// RequestID attaches a correlation id to every request, reusing the caller's
// id when the gateway already set one.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rid := ctx.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		ctx.Set(ContextRequestIDKey, rid)
		ctx.Writer.Header().Set(HeaderRequestID, rid)
		ctx.Next()
	}
}
