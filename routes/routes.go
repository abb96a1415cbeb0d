package routes

import (
	"net/http"
	"time"

	"report-ledger-api/controllers"
	"report-ledger-api/middleware"
	"report-ledger-api/services"

	"github.com/gin-gonic/gin"
)

// Services are the constructed application services the routes serve.
type Services struct {
	Registry    *services.ModuleRegistry
	Permissions *services.PermissionService
	Ledger      *services.LedgerService
	Dashboard   *services.DashboardService
	Admin       *services.AdminService
	Auth        *services.AuthService
	Attachments *services.AttachmentService
}

type Options struct {
	JWTSecret   string
	TokenTTL    time.Duration
	RequireAuth bool
	AdminRoleID int
	TrendMonths int
}

func SetupRoutes(router *gin.Engine, svc Services, opts Options) {
	forms := controllers.NewFormsController(svc.Ledger)
	permissions := controllers.NewPermissionsController(svc.Permissions, svc.Registry)
	dashboard := controllers.NewDashboardController(svc.Dashboard, opts.TrendMonths)
	modules := controllers.NewModulesController(svc.Registry)
	auth := controllers.NewAuthController(svc.Auth, opts.JWTSecret, opts.TokenTTL)
	admin := controllers.NewAdminController(svc.Admin)
	attachments := controllers.NewAttachmentsController(svc.Attachments)

	gate := middleware.GateOptions{RequireAuth: opts.RequireAuth}

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Report Ledger API is running",
		})
	}
	router.GET("/health", health)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		v1.GET("/health", health)
		v1.POST("/auth/login", auth.Login)

		// Caller identity comes from a bearer token when one is sent
		api := v1.Group("")
		if opts.RequireAuth {
			api.Use(middleware.AuthMiddleware(opts.JWTSecret))
		} else {
			api.Use(middleware.OptionalAuth(opts.JWTSecret))
		}
		{
			api.GET("/auth/me", middleware.AuthMiddleware(opts.JWTSecret), auth.GetProfile)
			api.GET("/modules", modules.ListModules)

			formsGroup := api.Group("/forms")
			{
				formsGroup.POST("/submit", middleware.PermissionGate(svc.Permissions, gate, controllers.SubmitTarget), forms.Submit)
				formsGroup.GET("/submission/:moduleId/:period", forms.GetSubmission)
				formsGroup.DELETE("/submission/:moduleId/:period", middleware.PermissionGate(svc.Permissions, gate, controllers.PathTarget), forms.DeleteSubmission)
				formsGroup.GET("/status/:period", forms.Status)
				formsGroup.GET("/history/:moduleId/:period", forms.History)

				formsGroup.POST("/attachments/:moduleId/:period", middleware.PermissionGate(svc.Permissions, gate, controllers.PathTarget), attachments.UploadAttachment)
				formsGroup.GET("/attachments/:moduleId/:period", attachments.ListAttachments)
			}

			api.GET("/permissions/user/:userId", permissions.GetUserPermissions)
			api.GET("/dashboard/user/:userId", dashboard.GetUserDashboard)
		}

		// Admin routes
		adminGroup := v1.Group("/admin")
		adminGroup.Use(middleware.AuthMiddleware(opts.JWTSecret), middleware.RequireRole(svc.Permissions, opts.AdminRoleID))
		{
			adminGroup.PUT("/roles/:roleId/permissions", admin.ReplaceRolePermissions)
			adminGroup.PUT("/users/:userId/role", admin.SetUserRole)
		}
	}
}
