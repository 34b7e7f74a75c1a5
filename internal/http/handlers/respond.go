package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Status    string      `json:"status"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString("request_id"); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondOK(ctx *gin.Context, status int, message string, data interface{}) {
	ctx.JSON(status, Envelope{
		Status:  statusSuccess,
		Message: message,
		Data:    data,
	})
}

// respondRaw wraps already-encoded data, as served from the response cache.
func respondRaw(ctx *gin.Context, status int, data json.RawMessage) {
	ctx.JSON(status, Envelope{
		Status: statusSuccess,
		Data:   data,
	})
}

func RespondError(ctx *gin.Context, status int, message string, details interface{}) {
	ctx.JSON(status, Envelope{
		Status:    statusError,
		Message:   message,
		RequestID: requestIDFrom(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, message, details)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message, nil)
}

func RespondConflict(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusConflict, message, nil)
}

// RespondInternal logs err and sends only the generic message. The request id
// reaches the log line through the request context.
func RespondInternal(ctx *gin.Context, message string, err error) {
	slog.Default().ErrorContext(ctx.Request.Context(), message,
		"err", err,
		"route", ctx.FullPath(),
	)
	RespondError(ctx, http.StatusInternalServerError, message, nil)
}
