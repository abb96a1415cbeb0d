package controllers

import (
	"net/http"
	"time"

	"report-ledger-api/models"
	"report-ledger-api/services"
	"report-ledger-api/utils"

	"github.com/gin-gonic/gin"
)

type moduleGrant struct {
	models.Module
	PermissionType models.PermissionType `json:"permission_type"`
}

type PermissionsController struct {
	perms    *services.PermissionService
	registry *services.ModuleRegistry
	now      func() time.Time
}

func NewPermissionsController(perms *services.PermissionService, registry *services.ModuleRegistry) *PermissionsController {
	return &PermissionsController{perms: perms, registry: registry, now: time.Now}
}

// GetUserPermissions returns the readable and writable modules of a user and
// the forms still pending for the current period
func (pc *PermissionsController) GetUserPermissions(c *gin.Context) {
	userID, err := pathInt(c, "userId")
	if err != nil {
		respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	access, err := pc.perms.ResolveAccess(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	readable, err := pc.registry.Select(ctx, func(module models.Module) bool {
		return access.Readable.Contains(module.ModuleID)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	modules := make([]moduleGrant, 0, len(readable))
	writable := make([]models.Module, 0, access.Writable.Cardinality())
	for _, module := range readable {
		modules = append(modules, moduleGrant{Module: module, PermissionType: access.PermissionFor(module.ModuleID)})
		if access.Writable.Contains(module.ModuleID) {
			writable = append(writable, module)
		}
	}

	period := utils.CurrentPeriod(pc.now())
	pending, err := pc.perms.ListPendingForWriter(ctx, userID, period)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user_id":          access.UserID,
			"role_id":          access.RoleID,
			"period":           period,
			"modules":          modules,
			"readable_modules": readable,
			"writable_modules": writable,
			"pending_forms":    pending,
			"pending_count":    len(pending),
		},
	})
}
