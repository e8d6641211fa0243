package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			ctx.Request.Header.Set(RequestIDHeader, id)
		}
		ctx.Header(RequestIDHeader, id)
		ctx.Next()
	}
}
