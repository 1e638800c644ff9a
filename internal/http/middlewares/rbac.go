package middlewares

import (
	"net/http"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/gin-gonic/gin"
)

// authorizeRole aborts with 403 when the actor's role does not reach the
// rule's tier. The actor is already authenticated at this point, so a
// shortfall is never reported as 401.
func (m *AuthMiddleware) authorizeRole(c *gin.Context, actor actorctx.Actor, rule Rule) bool {
	if actor.Role.Satisfies(rule.Require) {
		return true
	}

	m.deny(c, http.StatusForbidden, "insufficient_role", "forbidden", rule.Require.String()+" role required")

	return false
}
