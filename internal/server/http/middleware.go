package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"profilekeeper/internal/common"
	"profilekeeper/internal/server/auth"
)

const userIDKey = "userID"

// authMiddleware validates the bearer token and stores the account id in the
// gin context for downstream handlers.
func authMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token := strings.TrimPrefix(header, common.BearerPrefix)
		id, err := auth.GetUserIDFromToken(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(userIDKey, id)
		c.Next()
	}
}

// userID returns the account id stored by authMiddleware. Empty outside the
// authenticated group.
func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
