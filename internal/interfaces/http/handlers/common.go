package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func statusForError(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeBadRequest, errors.ErrCodeValidation:
		return http.StatusBadRequest
	case errors.ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	c.AbortWithStatusJSON(statusForError(err), ErrorResponse{Code: code.String(), Message: err.Error()})
}
