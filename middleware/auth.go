package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/phillip/college-events-go/services"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// AuthMiddleware requires a valid bearer token and attaches the caller's
// user id and role to the gin context.
func AuthMiddleware(tokens *services.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   string(services.KindUnauthenticated),
				"message": "No token, authorization denied",
			})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")))
		if err != nil {
			log.Ctx(c.Request.Context()).Debug().Err(err).Msg("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   string(services.KindUnauthenticated),
				"message": "Token is not valid",
			})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// Identity returns the authenticated caller, or nil on public routes.
func Identity(c *gin.Context) *services.Identity {
	uid := c.GetString(ContextUserID)
	if uid == "" {
		return nil
	}
	return &services.Identity{UserID: uid, Role: c.GetString(ContextRole)}
}
