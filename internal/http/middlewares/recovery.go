package middlewares

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into the standard 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Default().ErrorContext(c.Request.Context(), "panic recovered",
					"panic", rec,
					"request_id", RequestIDFrom(c),
					"stack", string(debug.Stack()),
				)

				if c.Writer.Written() {
					c.Abort()
					return
				}
				abortWith(c, http.StatusInternalServerError, "internal_error", "Something went wrong")
			}
		}()

		c.Next()
	}
}
