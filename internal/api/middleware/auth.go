package middleware

import (
	"net/http"
	"strings"

	"reviewhub/internal/api/permissions"
	"reviewhub/internal/api/service"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// AuthRequired authenticates the request via the Authorization header and
// rejects anonymous callers. The actor's role comes from the users table,
// not the token, so a role change takes effect on the next request.
func AuthRequired(authService service.AuthService, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		actor, ok := resolveActor(c, authHeader, authService, userService)
		if !ok {
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// AuthOptional resolves the actor when credentials are presented and falls
// back to anonymous when they are not. A presented-but-invalid token is
// still rejected rather than downgraded to anonymous.
func AuthOptional(authService service.AuthService, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(actorKey, permissions.Anonymous())
			c.Next()
			return
		}

		actor, ok := resolveActor(c, authHeader, authService, userService)
		if !ok {
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

func resolveActor(c *gin.Context, authHeader string, authService service.AuthService, userService service.UserService) (permissions.Actor, bool) {
	// Extract token (format: "Bearer <token>")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
		c.Abort()
		return permissions.Actor{}, false
	}

	claims, err := authService.ValidateToken(parts[1])
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
		return permissions.Actor{}, false
	}

	// current role snapshot; a deleted account means a dead token
	user, err := userService.GetByID(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
		return permissions.Actor{}, false
	}

	role, ok := permissions.ParseRole(user.Role)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
		return permissions.Actor{}, false
	}

	return permissions.Actor{
		ID:            user.ID,
		Username:      user.Username,
		Role:          role,
		Authenticated: true,
	}, true
}

// ActorFromContext returns the actor resolved by the auth middleware,
// anonymous when none was set.
func ActorFromContext(c *gin.Context) permissions.Actor {
	if v, exists := c.Get(actorKey); exists {
		if actor, ok := v.(permissions.Actor); ok {
			return actor
		}
	}
	return permissions.Anonymous()
}

// RequireCatalogWrite gates catalog mutations (categories, genres, titles).
func RequireCatalogWrite() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !respondDecision(c, permissions.CatalogWrite(ActorFromContext(c))) {
			return
		}
		c.Next()
	}
}

// RequireUserAdmin gates the user-management surface.
func RequireUserAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !respondDecision(c, permissions.ManageUsers(ActorFromContext(c))) {
			return
		}
		c.Next()
	}
}

// respondDecision writes the denial response and reports whether the
// request may proceed. Unauthenticated and forbidden map to distinct
// statuses.
func respondDecision(c *gin.Context, d permissions.Decision) bool {
	switch d {
	case permissions.Allow:
		return true
	case permissions.DenyUnauthenticated:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	}
	c.Abort()
	return false
}

// RespondDecision is the handler-level variant of the gate, used for
// object-level checks that need the resource loaded first.
func RespondDecision(c *gin.Context, d permissions.Decision) bool {
	return respondDecision(c, d)
}
