package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-workers/internal/common/errors"
)

// statusFor maps an error code onto an HTTP status.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInputValidationFailed,
		errors.ErrCodeContactValidationFailed,
		errors.ErrCodeInvalidCategory,
		errors.ErrCodeInvalidAction,
		errors.ErrCodeParseError:
		return http.StatusBadRequest
	case errors.ErrCodeContactInProgress:
		return http.StatusConflict
	case errors.ErrCodeCatalogUnavailable,
		errors.ErrCodeCatalogQueryFailed,
		errors.ErrCodeAssistantUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrCodeContactSubmitFailed,
		errors.ErrCodeContactTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(stdErr *errors.StandardError) gin.H {
	return gin.H{
		"code":    stdErr.Code,
		"message": stdErr.Message,
		"details": stdErr.Details,
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	stdErr := errors.AsStandardError(err)
	status := statusFor(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", map[string]interface{}{
			"path":      c.FullPath(),
			"errorCode": string(stdErr.Code),
			"error":     err,
		})
	}
	c.JSON(status, gin.H{"error": errorBody(stdErr)})
}
