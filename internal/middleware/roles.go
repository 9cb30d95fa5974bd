// internal/middleware/roles.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tracelink/provenance-backend/internal/models"
	"github.com/tracelink/provenance-backend/internal/services"
)

// RoleRequired gates a route group on the role registry. Handlers behind it
// can still apply finer checks (owner identity, payer identity) themselves.
func RoleRequired(roleService *services.RoleService, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principalIDStr, exists := c.Get("principal_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		principalID, err := uuid.Parse(principalIDStr.(string))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid principal"})
			c.Abort()
			return
		}

		if !roleService.HasAnyRole(principalID, roles...) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func AdminRequired(roleService *services.RoleService) gin.HandlerFunc {
	return RoleRequired(roleService, models.RoleAdmin)
}
