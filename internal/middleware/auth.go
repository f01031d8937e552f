package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"studiorit/internal/authz"
	"studiorit/internal/logging"
	"studiorit/internal/services"
)

const (
	ContextUserID = "user_id"
	ContextActor  = "actor"
)

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "unauthorized"})
}

// AuthMiddleware validates the bearer token, loads the user it names and
// stores the caller as an authz.Actor in the context.
func AuthMiddleware(auth services.AuthService, users services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			unauthorized(c, "Not authorized - no token provided")
			return
		}

		claims, err := auth.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			logging.Logger.WithField("path", c.Request.URL.Path).Debug("[auth][token][invalid]")
			unauthorized(c, "Not authorized - token invalid")
			return
		}

		user, err := users.Profile(c.Request.Context(), claims.UserID)
		if err != nil {
			logging.Logger.WithFields(logrus.Fields{"user_id": claims.UserID}).WithError(err).Warn("[auth][token][no_user]")
			unauthorized(c, "User not found")
			return
		}
		if !user.IsActive {
			unauthorized(c, "Your account has been deactivated")
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextActor, authz.ActorFromUser(user))
		c.Next()
	}
}

// ActorFrom returns the caller stored by AuthMiddleware.
func ActorFrom(c *gin.Context) (authz.Actor, bool) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return authz.Actor{}, false
	}
	a, ok := v.(authz.Actor)
	return a, ok
}
