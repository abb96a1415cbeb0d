package controllers

import (
	"net/http"
	"strconv"

	"report-ledger-api/services"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	dashboard   *services.DashboardService
	trendMonths int
}

func NewDashboardController(dashboard *services.DashboardService, trendMonths int) *DashboardController {
	return &DashboardController{dashboard: dashboard, trendMonths: trendMonths}
}

// GetUserDashboard returns completion rate, category stats, trend and pending
// forms for one user
func (dc *DashboardController) GetUserDashboard(c *gin.Context) {
	userID, err := pathInt(c, "userId")
	if err != nil {
		respondError(c, err)
		return
	}

	months := dc.trendMonths
	if raw := c.Query("months"); raw != "" {
		months, err = strconv.Atoi(raw)
		if err != nil || months <= 0 {
			respondError(c, badRequest("months must be a positive integer"))
			return
		}
	}

	overview, err := dc.dashboard.Overview(c.Request.Context(), userID, c.Query("period"), months)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user_id":         overview.UserID,
			"period":          overview.Period,
			"completion_rate": overview.Completion.CompletionRate,
			"writable_count":  overview.Completion.WritableCount,
			"submitted_count": overview.Completion.SubmittedCount,
			"pending_count":   overview.Pending.PendingCount,
			"pending_forms":   overview.Pending.PendingModules,
			"category_stats":  overview.Completion.Categories,
			"trend":           overview.Trend,
		},
	})
}
