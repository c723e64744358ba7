// internal/common/errors/handler.go
package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders errors raised by request handlers with standardized logging.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleRequestError writes the failure envelope for err and logs it.
func (h *ErrorHandler) HandleRequestError(c *gin.Context, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(c, stdErr, status)

	body := gin.H{
		"code":      stdErr.Code,
		"message":   stdErr.Message,
		"retryable": stdErr.Retryable,
	}
	if stdErr.Details != "" {
		body["details"] = stdErr.Details
	}
	if fields, ok := stdErr.Metadata["fields"]; ok {
		body["fields"] = fields
	}

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

func (h *ErrorHandler) logError(c *gin.Context, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"method":        c.Request.Method,
		"path":          c.FullPath(),
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields)
		return
	}
	h.logger.Warn("Request rejected", fields)
}

// HTTPStatus maps an error code to the response status of the HTTP API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeNavigationLocked,
		ErrCodeInvalidTransition,
		ErrCodeNotPersisted,
		ErrCodeSessionSubmitted,
		ErrCodePersistInProgress:
		return http.StatusConflict
	case ErrCodeSessionNotFound,
		ErrCodeFileNotFound,
		ErrCodeSuggestionNotFound,
		ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUploadFailed,
		ErrCodePersistFailed,
		ErrCodeExternalService:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
