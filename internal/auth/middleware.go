package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// GinIdentityKey holds the Identity on the gin context.
const GinIdentityKey = "identity"

// RequireAccessToken verifies an access token and injects identity into request context.
// It does not perform RBAC checks; those belong to internal/rbac.
func RequireAccessToken(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(strings.TrimSpace(c.GetHeader("Authorization")), bearerPrefix)
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := m.Verify(raw, TokenTypeAccess, time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		ctx := WithIdentity(c.Request.Context(), claims.UserID, claims.DeviceID, claims.Role)
		c.Request = c.Request.WithContext(ctx)
		id, _ := IdentityFrom(ctx)
		c.Set(GinIdentityKey, id)
		c.Next()
	}
}
