package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Status    string      `json:"status"`
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Results *int        `json:"results,omitempty"`
	Data    interface{} `json:"data"`
}

func RespondSuccess(ctx *gin.Context, status int, message string, data interface{}) {
	ctx.JSON(status, Envelope{Status: "success", Message: message, Data: data})
}

// RespondList adds the item count of the current page.
func RespondList(ctx *gin.Context, results int, data interface{}) {
	ctx.JSON(http.StatusOK, Envelope{Status: "success", Results: &results, Data: data})
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.AbortWithStatusJSON(status, APIError{
		Status:    "error",
		Code:      code,
		Message:   message,
		RequestID: middlewares.RequestIDFrom(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondErr maps classified errors to their status. Anything else is logged
// and hidden behind a 500, with the reason attached only in debug mode.
func RespondErr(ctx *gin.Context, err error) {
	if e, ok := apperr.As(err); ok {
		RespondError(ctx, e.Kind.HTTPStatus(), e.Code, e.Message, nil)
		return
	}

	slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
		"err", err,
		"route", ctx.FullPath(),
		"request_id", middlewares.RequestIDFrom(ctx),
	)

	var details interface{}
	if gin.IsDebugging() {
		details = gin.H{"reason": err.Error()}
	}
	RespondError(ctx, http.StatusInternalServerError, "internal_error", "Something went wrong", details)
}
