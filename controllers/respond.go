package controllers

import (
	"fmt"
	"strconv"

	"report-ledger-api/middleware"
	"report-ledger-api/services"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", services.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// pathInt parses a positive integer path parameter.
func pathInt(c *gin.Context, name string) (int, error) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil || value <= 0 {
		return 0, badRequest("%s must be a positive integer", name)
	}
	return value, nil
}

// optionalUserID returns the verified token user when present, otherwise the
// user_id query parameter, otherwise nil.
func optionalUserID(c *gin.Context) (*int, error) {
	if userID, ok := middleware.AuthenticatedUserID(c); ok {
		return &userID, nil
	}
	raw := c.Query("user_id")
	if raw == "" {
		return nil, nil
	}
	userID, err := strconv.Atoi(raw)
	if err != nil || userID <= 0 {
		return nil, badRequest("user_id must be a positive integer")
	}
	return &userID, nil
}
