package rbac

import (
	"net/http"

	"callhistory/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireDevice enforces that the token was issued for this device's call history.
// device_id must exist in context; when deviceID is non-empty it must also match.
func RequireDevice(deviceID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.IdentityFrom(c.Request.Context())
		if !ok || id.DeviceID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "device_id required"})
			return
		}
		if deviceID != "" && id.DeviceID != deviceID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows access if the caller has any of the provided roles.
// super_admin passes every check. Hidden roles pass only when listed, like any other.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]bool, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = true
	}

	return func(c *gin.Context) {
		id, ok := auth.IdentityFrom(c.Request.Context())
		if !ok || id.Role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}
		if !IsSuperAdmin(id.Role) && !allowedSet[id.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
