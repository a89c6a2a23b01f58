package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"companion-booking-backend/internal/auth"
	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/reservation"
)

const actorKey = "actor"

// Auth validates a Bearer access token and stores the actor in the gin context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token", "code": "unauthorized"})
			return
		}

		userID, role, err := auth.ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "unauthorized"})
			return
		}

		c.Set(actorKey, reservation.Actor{UserID: userID, Role: role})
		c.Next()
	}
}

// RequireRole rejects actors whose role is not listed. It must run after Auth.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated", "code": "unauthorized"})
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role", "code": "forbidden"})
	}
}

// ActorFrom returns the actor stored by Auth.
func ActorFrom(c *gin.Context) (reservation.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return reservation.Actor{}, false
	}
	actor, ok := v.(reservation.Actor)
	return actor, ok
}
