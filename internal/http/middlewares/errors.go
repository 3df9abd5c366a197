package middlewares

import (
	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/gin-gonic/gin"
)

// RequestIDFrom returns the id set by RequestID, falling back to the header.
func RequestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	return ctx.GetHeader(requestIDHeader)
}

// abortWith writes the standard error envelope and stops the chain.
func abortWith(ctx *gin.Context, status int, code, message string) {
	body := gin.H{
		"status":  "error",
		"code":    code,
		"message": message,
	}
	if id := RequestIDFrom(ctx); id != "" {
		body["requestId"] = id
	}

	ctx.AbortWithStatusJSON(status, body)
}

func abortErr(ctx *gin.Context, err *apperr.Error) {
	abortWith(ctx, err.Kind.HTTPStatus(), err.Code, err.Message)
}
