package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// DenialObserver is satisfied by *observability.Prom.
type DenialObserver interface {
	ObserveDenial(reason string)
}

type AuthMiddleware struct {
	tokens  TokenValidator
	policy  Policy
	denials DenialObserver
}

func NewAuthMiddleware(tokens TokenValidator, policy Policy, denials DenialObserver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, policy: policy, denials: denials}
}

// Authorize runs before every handler in its group. It resolves the route's
// rule, authenticates the bearer token, attaches the actor to the request
// context and enforces the rule's role. Nothing downstream runs on rejection.
func (m *AuthMiddleware) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		rule, ok := m.policy.Match(c.Request.Method, route)
		if !ok {
			// a route without a rule is a wiring mistake; fail closed
			m.deny(c, http.StatusForbidden, "no_rule", "forbidden", "No access rule for this route")
			return
		}

		if rule.Public {
			c.Next()
			return
		}

		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.deny(c, http.StatusUnauthorized, "missing_token", "unauthorized", "Missing or invalid Authorization header")
			return
		}

		claims, err := m.tokens.Validate(raw)
		if err != nil {
			m.deny(c, http.StatusUnauthorized, "invalid_token", "unauthorized", "Invalid or expired access token")
			return
		}

		actor := actorctx.Actor{Email: claims.Email, Role: claims.Role}
		c.Request = c.Request.WithContext(actorctx.With(c.Request.Context(), actor))
		c.Set(CtxActorEmail, actor.Email)

		if !m.authorizeRole(c, actor, rule) {
			return
		}

		c.Next()
	}
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// case-insensitive per RFC 6750.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}

func (m *AuthMiddleware) deny(c *gin.Context, status int, reason, code, message string) {
	if m.denials != nil {
		m.denials.ObserveDenial(reason)
	}

	reqID, _ := c.Get(CtxRequestID)

	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": reqID,
		},
	})
}
