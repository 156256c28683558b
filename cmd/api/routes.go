package main

import (
	"callhistory/internal/auth"
	"callhistory/internal/config"
	"callhistory/internal/httpapi"
	"callhistory/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc, cfg config.Config) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// AUTH routes (token issuance).
	// NOTE: Login does not validate credentials, so it only exists outside production.
	// Production tokens are minted with calllogctl.
	if !cfg.IsProduction() {
		r.POST("/v1/auth/login", h.Login)
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", func(c *gin.Context) {
			id, _ := auth.IdentityFrom(c.Request.Context())
			c.JSON(200, id)
		})

		// CALL LOG routes
		callLog := v1.Group("/calllog")
		callLog.Use(httpapi.RequireDeviceAndAnyRole(cfg.App.DeviceID, rbac.RoleOwner, rbac.RoleReader)...)
		{
			callLog.POST("/:method", h.Invoke)
			callLog.GET("/state", h.State)
		}

		// PERMISSION routes
		// Only the owner answers prompts for their device.
		perms := v1.Group("/permissions")
		perms.Use(httpapi.RequireDeviceAndAnyRole(cfg.App.DeviceID, rbac.RoleOwner)...)
		{
			perms.GET("/pending", h.PendingPermissions)
			perms.POST("/:request_id", h.ResolvePermission)
		}

		// ADMIN routes
		// Only owner/super_admin can access admin endpoints by default.
		// Hidden support role is intentionally NOT included unless explicitly desired.
		admin := v1.Group("/admin")
		admin.Use(httpapi.RequireDeviceAndAnyRole(cfg.App.DeviceID, rbac.RoleOwner, rbac.RoleSuperAdmin)...)
		{
			admin.GET("/audit", h.ListAudit)
		}
	}
}
