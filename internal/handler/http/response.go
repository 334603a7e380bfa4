package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/061010Elias/Telegram-License-Bot-Web-Interface/internal/domain/errors"
)

// ErrorResponse is the uniform error body for the admin API.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// renderError maps a domain error onto an HTTP status. Handlers never leak
// raw internal errors to the caller.
func renderError(c *gin.Context, err error) {
	switch {
	case domainErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case domainErrors.IsPreconditionFailed(err):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "precondition_failed"})
	case domainErrors.IsBadRequest(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_request"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"})
	}
}
