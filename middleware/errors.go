package middleware

import (
	"errors"
	"net/http"

	"report-ledger-api/services"

	"github.com/gin-gonic/gin"
)

// ErrorStatus maps a service error to its HTTP status code.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage is the client-facing text for err. Store failures are not
// described beyond their category.
func ErrorMessage(err error) string {
	if ErrorStatus(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}

// AbortWithError writes the standard error body and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(ErrorStatus(err), gin.H{
		"success": false,
		"error":   ErrorMessage(err),
	})
}
