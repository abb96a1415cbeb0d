package controllers

import (
	"net/http"

	"report-ledger-api/services"

	"github.com/gin-gonic/gin"
)

type ReplaceGrantsRequest struct {
	Grants []services.GrantInput `json:"grants"`
}

type SetRoleRequest struct {
	RoleID int `json:"role_id" binding:"required"`
}

type AdminController struct {
	admin *services.AdminService
}

func NewAdminController(admin *services.AdminService) *AdminController {
	return &AdminController{admin: admin}
}

// ReplaceRolePermissions swaps the full grant set of a role
func (ac *AdminController) ReplaceRolePermissions(c *gin.Context) {
	roleID, err := pathInt(c, "roleId")
	if err != nil {
		respondError(c, err)
		return
	}

	var req ReplaceGrantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("invalid request body"))
		return
	}

	grants, err := ac.admin.ReplaceRoleGrants(c.Request.Context(), roleID, req.Grants)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Role permissions updated successfully",
		"data":    grants,
	})
}

func (ac *AdminController) SetUserRole(c *gin.Context) {
	userID, err := pathInt(c, "userId")
	if err != nil {
		respondError(c, err)
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("role_id is required"))
		return
	}

	if err := ac.admin.SetUserRole(c.Request.Context(), userID, req.RoleID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User role updated successfully",
	})
}
