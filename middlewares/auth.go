package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eventhub/utils"
)

// Authenticate verifies the Authorization header and stores "userId" in the
// gin context. Both a bare token and "Bearer <token>" are accepted.
func Authenticate(tokens *utils.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized."})
			return
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized."})
			return
		}

		c.Set("userId", userID)
		c.Next()
	}
}
