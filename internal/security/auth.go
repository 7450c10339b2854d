package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/memementor/embedding-service/internal/config"
)

// BearerAuthMiddleware enforces the static bearer token on the
// OpenAI-compatible surface. When cfg.RequireAuth is false the middleware is a
// pass-through. Failures use the OpenAI nested error envelope and set
// WWW-Authenticate per RFC 6750.
func BearerAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.RequireAuth {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "Authentication required", "authentication_error")
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			unauthorized(c, "Bearer authentication required", "authentication_error")
			return
		}

		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(cfg.APIKey)) != 1 {
			unauthorized(c, "Invalid API key", "invalid_api_key")
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, message, errType string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{"message": message, "type": errType},
	})
}
