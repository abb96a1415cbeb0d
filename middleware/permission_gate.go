package middleware

import (
	"fmt"
	"net/http"

	"report-ledger-api/services"
	"report-ledger-api/utils"

	"github.com/gin-gonic/gin"
)

// ContextActingUser holds the user id a gated request acts as.
const ContextActingUser = "actingUserID"

// GateTarget is what a gated request wants to mutate, as read from the
// request before the handler runs.
type GateTarget struct {
	UserID   int
	ModuleID int
	Period   string
}

// TargetExtractor reads the gate target from a request. Extractors must not
// consume the request body in a way the handler cannot re-read.
type TargetExtractor func(c *gin.Context) (GateTarget, error)

type GateOptions struct {
	// RequireAuth ignores caller-supplied user ids and demands a token.
	RequireAuth bool
}

// PermissionGate rejects a mutating request unless the acting user holds a
// write grant on the target module. It runs before the handler, so a denied
// request never reaches the ledger.
func PermissionGate(authz services.Authorizer, opts GateOptions, extract TargetExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := extract(c)
		if err != nil {
			AbortWithError(c, fmt.Errorf("%w: %v", services.ErrInvalidInput, err))
			return
		}

		if claimed, ok := AuthenticatedUserID(c); ok {
			target.UserID = claimed
		} else if opts.RequireAuth {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization header is required"})
			return
		}

		if target.UserID <= 0 {
			AbortWithError(c, fmt.Errorf("%w: user_id is required", services.ErrInvalidInput))
			return
		}
		if !utils.ValidatePeriod(target.Period) {
			AbortWithError(c, fmt.Errorf("%w: period %q must be in YYYY-MM format", services.ErrInvalidInput, target.Period))
			return
		}
		if target.ModuleID <= 0 {
			AbortWithError(c, fmt.Errorf("%w: module_id is required", services.ErrInvalidInput))
			return
		}

		allowed, err := authz.CanWrite(c.Request.Context(), target.UserID, target.ModuleID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !allowed {
			AbortWithError(c, fmt.Errorf("%w: user %d has no write permission for module %d",
				services.ErrPermissionDenied, target.UserID, target.ModuleID))
			return
		}

		c.Set(ContextActingUser, target.UserID)
		c.Next()
	}
}

// ActingUserID returns the user id a gated request was authorized as.
func ActingUserID(c *gin.Context) (int, bool) {
	value, exists := c.Get(ContextActingUser)
	if !exists {
		return 0, false
	}
	userID, ok := value.(int)
	return userID, ok
}
