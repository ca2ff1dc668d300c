package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"optical-commerce/internal/domain"
	"optical-commerce/internal/repository/token"
)

const (
	identityKey = "identity"
	roleAdmin   = "admin"
)

type identity struct {
	UserID string
	Role   string
}

// authMiddleware resolves the bearer token against the token store and puts
// the caller's identity on the gin context. Expired tokens are removed.
func authMiddleware(tokens token.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}

		id, err := tokens.Get(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "auth lookup failed"})
			return
		}
		if !id.ExpiresAt.IsZero() && id.ExpiresAt.Before(time.Now()) {
			_ = tokens.Delete(c.Request.Context(), raw)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "token expired"})
			return
		}

		c.Set(identityKey, identity{UserID: id.UserID, Role: id.Role})
		c.Next()
	}
}

func adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := callerIdentity(c)
		if !ok || id.Role != roleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "admin access required"})
			return
		}
		c.Next()
	}
}

func callerIdentity(c *gin.Context) (identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return identity{}, false
	}
	id, ok := v.(identity)
	return id, ok
}
