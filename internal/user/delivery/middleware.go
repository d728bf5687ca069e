package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userrepo "mailsub-backend/internal/user/repository"
)

// IdentityMiddleware resolves the calling user from the X-User-ID
// header set by the upstream auth gateway. Requests without a known
// user are rejected before reaching any handler.
func IdentityMiddleware(users userrepo.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing X-User-ID header"})
			c.Abort()
			return
		}

		user, err := users.FindByID(userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
			c.Abort()
			return
		}

		c.Set("userID", user.ID)
		c.Next()
	}
}
