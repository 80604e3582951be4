package middleware

import (
	"net/http"

	"shipsync/internal/webhook"

	"github.com/gin-gonic/gin"
)

// AdminSecretHeader carries the shared secret of operator endpoints.
const AdminSecretHeader = "X-Admin-Secret"

// RequireSecret rejects requests whose header does not match secret. With
// no secret configured every request is rejected.
func RequireSecret(header, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" || !webhook.SecretMatches(c.GetHeader(header), secret) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid secret"})
			return
		}
		c.Next()
	}
}
