package controllers

import (
	"net/http"

	"report-ledger-api/services"

	"github.com/gin-gonic/gin"
)

type ModulesController struct {
	registry *services.ModuleRegistry
}

func NewModulesController(registry *services.ModuleRegistry) *ModulesController {
	return &ModulesController{registry: registry}
}

// ListModules returns the report catalog ordered by category and name
func (mc *ModulesController) ListModules(c *gin.Context) {
	modules, err := mc.registry.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    modules,
		"total":   len(modules),
	})
}
