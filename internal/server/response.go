package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kapu/student-insights-go/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondAppError maps typed application errors onto HTTP status codes.
func respondAppError(c *gin.Context, err error) {
	status := errors.StatusCode(err, http.StatusInternalServerError)
	RespondError(c, status, errorCode(err), err)
}

func errorCode(err error) string {
	switch {
	case errors.IsValidationError(err):
		return errors.CodeValidation
	case errors.IsUpstreamError(err):
		return errors.CodeUpstream
	case errors.IsSchemaError(err):
		return errors.CodeSchema
	default:
		return errors.CodeAppError
	}
}
