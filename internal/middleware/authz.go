package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studiorit/internal/authz"
	"studiorit/internal/models"
)

// RequireRank lets through callers whose role ranks at least as high as
// any of the given roles.
func RequireRank(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			unauthorized(c, "Not authorized")
			return
		}
		var err error
		for _, r := range roles {
			if err = authz.RequireRank(actor, r); err == nil {
				c.Next()
				return
			}
		}
		if err == nil {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "forbidden"})
	}
}
