// Common response helpers shared by the HTTP handlers.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medcodelab/substance-mapper/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps an application error to its HTTP status and writes the
// structured body.  Unclassified errors are masked as internal.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := err.Error()
	if status == http.StatusInternalServerError && code == errors.ErrCodeUnknown {
		message = "internal server error"
		code = errors.ErrCodeInternal
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    string(code),
		Message: message,
	})
}
