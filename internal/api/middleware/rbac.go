package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Role is the kind of person behind a token.
type Role string

const (
	RoleTechnician Role = "technician"
	RoleDispatcher Role = "dispatcher"
)

// RoleOf returns the role of the authenticated actor on c, or "" when
// the request carries no actor.
func RoleOf(c *gin.Context) Role {
	actor := ActorFrom(c.Request.Context())
	switch {
	case actor.DispatcherID != "":
		return RoleDispatcher
	case actor.TechID != "":
		return RoleTechnician
	default:
		return ""
	}
}

// RequireRole returns middleware that admits only actors with one of roles.
// It must run after JWTAuth.
func RequireRole(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		have := RoleOf(c)
		for _, r := range roles {
			if have == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"err":  "insufficient permissions",
			"code": "FORBIDDEN",
		})
	}
}
